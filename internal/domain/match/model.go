package match

import (
	"fmt"
	"time"
)

// Status values mirror the upstream status_id enumeration.
const (
	StatusScheduled = 1
	StatusLive      = 2
	StatusFinished  = 3
	StatusCanceled  = 4
)

// StatusText maps an upstream status_id to its display name. Unknown
// values render as "unknown" rather than failing.
func StatusText(statusID int) string {
	switch statusID {
	case StatusScheduled:
		return "scheduled"
	case StatusLive:
		return "live"
	case StatusFinished:
		return "finished"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// StatusID is the inverse of StatusText. It reports false for names it
// does not know.
func StatusID(text string) (int, bool) {
	switch text {
	case "scheduled":
		return StatusScheduled, true
	case "live":
		return StatusLive, true
	case "finished":
		return StatusFinished, true
	case "canceled":
		return StatusCanceled, true
	default:
		return 0, false
	}
}

// Participant is one side of a match.
type Participant struct {
	ID       int64
	Nickname string
	TeamID   int64
	TeamName string
}

// Match is one upstream fixture, tagged with the tournament it was
// fetched under.
type Match struct {
	ID             int64
	TournamentID   int64
	TournamentName string
	LocationName   string
	Player1        Participant
	Player2        Participant
	Score1         *int
	Score2         *int
	StatusID       int
	StreamURL      string
	StartAt        time.Time
	SeenAt         time.Time
}

func (m Match) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("match id is required")
	}
	if m.TournamentID <= 0 {
		return fmt.Errorf("match tournament id is required")
	}

	return nil
}

func (m Match) IsFinished() bool {
	return m.StatusID == StatusFinished
}

func (m Match) IsLive() bool {
	return m.StatusID == StatusLive
}

// HasScore reports whether both sides carry a score value.
func (m Match) HasScore() bool {
	return m.Score1 != nil && m.Score2 != nil
}

// Equal reports whether the mutable fields tracked across scans are
// unchanged. Identity fields are assumed equal for the same ID.
func (m Match) Equal(other Match) bool {
	return m.StatusID == other.StatusID &&
		intPtrEqual(m.Score1, other.Score1) &&
		intPtrEqual(m.Score2, other.Score2) &&
		m.StreamURL == other.StreamURL &&
		m.StartAt.Equal(other.StartAt)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
