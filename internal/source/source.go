// Package source fetches the raw check-ins of a subject. A fetch is a
// single all-or-nothing call: any failure is reported as a *FetchError
// and no partial result is returned.
package source

import (
	"context"
	"fmt"

	"github.com/jengzang/profileviewer-go/internal/models"
)

// Source loads every raw check-in of a subject
type Source interface {
	Fetch(ctx context.Context, subject string) ([]models.RawCheckin, error)
}

// Progress is called after every fetched page with the number of pages and
// records read so far
type Progress func(pages, records int)

// FetchError reports a failed or unreachable data source
type FetchError struct {
	Source  string
	Subject string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("fetch from %s failed: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("fetch of %s from %s failed: %v", e.Subject, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
