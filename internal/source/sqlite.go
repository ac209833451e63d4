package source

import (
	"context"

	"github.com/jengzang/profileviewer-go/internal/models"
	"github.com/jengzang/profileviewer-go/internal/repository"
)

// SQLiteSource reads check-ins from a local export
type SQLiteSource struct {
	Path string // for error reports
	repo *repository.CheckinRepository
}

// NewSQLiteSource wraps a check-in repository
func NewSQLiteSource(path string, repo *repository.CheckinRepository) *SQLiteSource {
	return &SQLiteSource{Path: path, repo: repo}
}

// Fetch returns the subject's check-ins in time order
func (s *SQLiteSource) Fetch(ctx context.Context, subject string) ([]models.RawCheckin, error) {
	raw, err := s.repo.ListBySubject(ctx, subject)
	if err != nil {
		return nil, &FetchError{Source: "sqlite:" + s.Path, Subject: subject, Err: err}
	}
	return raw, nil
}
