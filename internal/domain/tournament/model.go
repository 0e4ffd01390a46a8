package tournament

import (
	"fmt"
	"time"
)

const (
	StatusPlanned  = 1
	StatusStarted  = 2
	StatusFinished = 3
	StatusCanceled = 4
)

// Tournament is an upstream competition that groups matches.
type Tournament struct {
	ID         int64
	Name       string
	Token      string
	StatusID   int
	LocationID int64
	Date       time.Time
}

func (t Tournament) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("tournament id is required")
	}

	return nil
}

// IsActive reports whether the tournament can still produce match
// updates. Unknown status values are treated as inactive.
func (t Tournament) IsActive() bool {
	return t.StatusID == StatusPlanned || t.StatusID == StatusStarted
}

// DisplayName prefers the international token over the local one.
func (t Tournament) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Token
}
