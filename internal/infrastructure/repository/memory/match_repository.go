package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"esbtracker/internal/domain/match"
)

const defaultMatchListLimit = 100

type MatchRepository struct {
	mu   sync.RWMutex
	byID map[int64]match.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{byID: make(map[int64]match.Match)}
}

func (r *MatchRepository) GetByID(_ context.Context, id int64) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byID[id]
	return item, ok, nil
}

func (r *MatchRepository) Upsert(_ context.Context, m match.Match) error {
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[m.ID] = m
	return nil
}

func (r *MatchRepository) List(_ context.Context, filter match.ListFilter) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]match.Match, 0, len(r.byID))
	for _, item := range r.byID {
		if filter.StatusID != 0 && item.StatusID != filter.StatusID {
			continue
		}
		if filter.LocationName != "" && item.LocationName != filter.LocationName {
			continue
		}
		rows = append(rows, item)
	}

	// Newest first, id as tie-breaker, matching the postgres ordering.
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].StartAt.Equal(rows[j].StartAt) {
			return rows[i].StartAt.After(rows[j].StartAt)
		}
		return rows[i].ID > rows[j].ID
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultMatchListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []match.Match{}, nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}

	out := make([]match.Match, end-offset)
	copy(out, rows[offset:end])
	return out, nil
}

func (r *MatchRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copied := make(map[int64]match.Match, len(r.byID))
	for id, item := range r.byID {
		copied[id] = item
	}
	return copied
}

func (r *MatchRepository) restore(saved any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID = saved.(map[int64]match.Match)
}

func (r *MatchRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, item := range r.byID {
		if item.SeenAt.Before(cutoff) {
			delete(r.byID, id)
			deleted++
		}
	}
	return deleted, nil
}
