package dashboard

import (
	"errors"
	"strings"
	"time"

	"github.com/jengzang/profileviewer-go/internal/models"
)

// Timestamp layouts accepted for created_at, tried in order
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.RubyDate, // Twitter created_at
}

// Build validates raw check-ins and converts them to records.
// The first malformed record aborts the build with an *InvalidRecordError
// and no records are returned.
func Build(raw []models.RawCheckin) ([]models.Checkin, error) {
	out := make([]models.Checkin, 0, len(raw))
	for i, r := range raw {
		c, err := convert(i, r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func convert(i int, r models.RawCheckin) (models.Checkin, error) {
	if strings.TrimSpace(r.CreatedAt) == "" {
		return models.Checkin{}, &InvalidRecordError{Index: i, Reason: "missing created_at"}
	}
	ts, err := parseTime(r.CreatedAt)
	if err != nil {
		return models.Checkin{}, &InvalidRecordError{Index: i, Reason: "unparseable created_at", Err: err}
	}
	if r.Place == nil || r.Place.ID == "" {
		return models.Checkin{}, &InvalidRecordError{Index: i, Reason: "missing place reference"}
	}

	p := r.Place
	return models.Checkin{
		CreatedAt: ts,
		Place: models.Place{
			ID:   string(p.ID),
			Name: p.Name,
			Lat:  p.Lat,
			Lng:  p.Lng,
			Category: models.Category{
				ID:     string(p.Category.ID),
				Name:   p.Category.Name,
				Parent: p.Category.ZCategory,
			},
		},
	}, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var errs []error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		errs = append(errs, err)
	}
	return time.Time{}, errors.Join(errs...)
}
