package scanlog

import (
	"context"
	"time"
)

// Repository describes scan-log persistence needs from use cases.
// Entries are append-only; there is no update operation.
type Repository interface {
	Append(ctx context.Context, e Entry) (Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
