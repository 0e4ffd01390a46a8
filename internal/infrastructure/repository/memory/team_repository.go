package memory

import (
	"context"
	"sort"
	"sync"

	"esbtracker/internal/domain/team"
)

type TeamRepository struct {
	mu   sync.RWMutex
	byID map[int64]team.Team
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{byID: make(map[int64]team.Team)}
}

func (r *TeamRepository) Upsert(_ context.Context, items []team.Team) error {
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

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.byID))
	for _, item := range r.byID {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}
