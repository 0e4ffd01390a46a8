package scanlog

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailure Status = "failure"
)

// Entry is one append-only record of a collection run.
type Entry struct {
	ID          int64
	StartedAt   time.Time
	Status      Status
	Found       int
	New         int
	Updated     int
	DurationMS  int64
	ErrorDetail string
}

func (e Entry) Validate() error {
	switch e.Status {
	case StatusSuccess, StatusPartial, StatusFailure:
	default:
		return fmt.Errorf("invalid scan status: %s", e.Status)
	}
	if e.StartedAt.IsZero() {
		return fmt.Errorf("scan started-at is required")
	}

	return nil
}
