package memory

import (
	"context"
	"sort"
	"sync"

	"esbtracker/internal/domain/location"
)

type LocationRepository struct {
	mu   sync.RWMutex
	byID map[int64]location.Location
}

func NewLocationRepository() *LocationRepository {
	return &LocationRepository{byID: make(map[int64]location.Location)}
}

func (r *LocationRepository) Upsert(_ context.Context, items []location.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.ID <= 0 {
			continue
		}
		r.byID[item.ID] = item
	}
	return nil
}

func (r *LocationRepository) List(_ context.Context) ([]location.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]location.Location, 0, len(r.byID))
	for _, item := range r.byID {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}
