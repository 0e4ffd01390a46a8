package memory

import (
	"context"
	"sync"
	"time"

	"esbtracker/internal/domain/scanlog"
)

const defaultScanListLimit = 50

type ScanLogRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   []scanlog.Entry
}

func NewScanLogRepository() *ScanLogRepository {
	return &ScanLogRepository{nextID: 1}
}

func (r *ScanLogRepository) Append(_ context.Context, e scanlog.Entry) (scanlog.Entry, error) {
	if err := e.Validate(); err != nil {
		return scanlog.Entry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = r.nextID
	r.nextID++
	r.rows = append(r.rows, e)
	return e, nil
}

func (r *ScanLogRepository) ListRecent(_ context.Context, limit int) ([]scanlog.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = defaultScanListLimit
	}

	out := make([]scanlog.Entry, 0, limit)
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.rows[i])
	}
	return out, nil
}

func (r *ScanLogRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.rows[:0]
	var deleted int64
	for _, item := range r.rows {
		if item.StartedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, item)
	}
	r.rows = kept
	return deleted, nil
}
