package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/profileviewer-go/internal/database"
	"github.com/jengzang/profileviewer-go/internal/models"
)

// CheckinRepository reads and writes the checkins table of an export
type CheckinRepository struct {
	db *sql.DB
}

// NewCheckinRepository creates a new check-in repository
func NewCheckinRepository(db *sql.DB) *CheckinRepository {
	return &CheckinRepository{db: db}
}

// ListBySubject returns every check-in of a subject in export order.
// Rows without a place id come back with a nil Place.
func (r *CheckinRepository) ListBySubject(ctx context.Context, subject string) ([]models.RawCheckin, error) {
	query := `SELECT created_at, place_id, place_name, lat, lng, category_id, category_name, zcategory
		FROM checkins WHERE subject = ? ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkins: %w", err)
	}
	defer rows.Close()

	var out []models.RawCheckin
	for rows.Next() {
		var (
			createdAt, placeID, placeName sql.NullString
			cateID, cateName, zcate       sql.NullString
			lat, lng                      sql.NullFloat64
		)
		if err := rows.Scan(&createdAt, &placeID, &placeName, &lat, &lng, &cateID, &cateName, &zcate); err != nil {
			return nil, fmt.Errorf("failed to scan checkin: %w", err)
		}

		c := models.RawCheckin{CreatedAt: createdAt.String}
		if placeID.Valid && placeID.String != "" {
			c.Place = &models.RawPlace{
				ID:   models.FlexibleID(placeID.String),
				Name: placeName.String,
				Lat:  lat.Float64,
				Lng:  lng.Float64,
				Category: models.RawCategory{
					ID:        models.FlexibleID(cateID.String),
					Name:      cateName.String,
					ZCategory: zcate.String,
				},
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checkins: %w", err)
	}
	return out, nil
}

// CountBySubject returns the number of stored check-ins of a subject
func (r *CheckinRepository) CountBySubject(ctx context.Context, subject string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM checkins WHERE subject = ?", subject).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count checkins: %w", err)
	}
	return n, nil
}

// Subjects lists the subjects present in the export
func (r *CheckinRepository) Subjects(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT subject FROM checkins ORDER BY subject")
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplaceSubject overwrites a subject's check-ins in one transaction
func (r *CheckinRepository) ReplaceSubject(ctx context.Context, subject string, checkins []models.RawCheckin) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM checkins WHERE subject = ?", subject); err != nil {
			return fmt.Errorf("failed to clear checkins of %s: %w", subject, err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO checkins
			(subject, created_at, place_id, place_name, lat, lng, category_id, category_name, zcategory)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, c := range checkins {
			var (
				placeID                  sql.NullString
				placeName, cateID, cateN string
				zcate                    string
				lat, lng                 float64
			)
			if p := c.Place; p != nil {
				placeID = sql.NullString{String: string(p.ID), Valid: p.ID != ""}
				placeName, lat, lng = p.Name, p.Lat, p.Lng
				cateID, cateN, zcate = string(p.Category.ID), p.Category.Name, p.Category.ZCategory
			}
			if _, err := stmt.ExecContext(ctx, subject, c.CreatedAt, placeID, placeName, lat, lng, cateID, cateN, zcate); err != nil {
				return fmt.Errorf("failed to insert checkin %d: %w", i, err)
			}
		}
		return nil
	})
}
