package memory

import (
	"context"
	"sort"
	"sync"

	"esbtracker/internal/domain/tournament"
)

type TournamentRepository struct {
	mu   sync.RWMutex
	byID map[int64]tournament.Tournament
}

func NewTournamentRepository() *TournamentRepository {
	return &TournamentRepository{byID: make(map[int64]tournament.Tournament)}
}

func (r *TournamentRepository) Upsert(_ context.Context, items []tournament.Tournament) error {
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

func (r *TournamentRepository) List(_ context.Context) ([]tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tournament.Tournament, 0, len(r.byID))
	for _, item := range r.byID {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}
