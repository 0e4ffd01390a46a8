package match

import (
	"context"
	"time"
)

// ListFilter narrows List results. Zero values mean "no restriction";
// Limit falls back to the repository default when zero.
type ListFilter struct {
	StatusID     int
	LocationName string
	Limit        int
	Offset       int
}

// Repository describes match persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Match, bool, error)
	Upsert(ctx context.Context, m Match) error
	List(ctx context.Context, filter ListFilter) ([]Match, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
