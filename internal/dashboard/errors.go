package dashboard

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by mutations on a closed session
var ErrSessionClosed = errors.New("dashboard session closed")

// InvalidRecordError reports a raw check-in that cannot be loaded.
// A load that hits one is aborted as a whole.
type InvalidRecordError struct {
	Index  int
	Reason string
	Err    error
}

func (e *InvalidRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid record %d: %s: %v", e.Index, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid record %d: %s", e.Index, e.Reason)
}

func (e *InvalidRecordError) Unwrap() error { return e.Err }

// NotFoundError reports a view kind or topic that does not exist
type NotFoundError struct {
	What string // "view" or "topic"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.What, e.Name)
}
