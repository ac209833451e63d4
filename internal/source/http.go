package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jengzang/profileviewer-go/internal/models"
)

// Subject query parameters understood by the check-in service
const (
	ParamCandidate  = "candidate"
	ParamScreenName = "screen_name"
)

// HTTPSource reads check-ins from <BaseURL>?<Param>=<subject>
type HTTPSource struct {
	BaseURL  string
	Param    string // defaults to ParamCandidate
	Client   *http.Client
	Progress Progress
}

// NewHTTPSource creates an HTTP source using the candidate parameter
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	return &HTTPSource{BaseURL: baseURL, Param: ParamCandidate, Client: client}
}

// Fetch loads every page of the subject's check-ins
func (s *HTTPSource) Fetch(ctx context.Context, subject string) ([]models.RawCheckin, error) {
	u, err := s.subjectURL(subject)
	if err != nil {
		return nil, &FetchError{Source: s.BaseURL, Subject: subject, Err: err}
	}

	raw, err := Paginate[models.RawCheckin](ctx, s.Client, u, s.Progress)
	if err != nil {
		return nil, &FetchError{Source: s.BaseURL, Subject: subject, Err: err}
	}
	return raw, nil
}

func (s *HTTPSource) subjectURL(subject string) (string, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	param := s.Param
	if param == "" {
		param = ParamCandidate
	}
	q := u.Query()
	q.Set(param, subject)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
