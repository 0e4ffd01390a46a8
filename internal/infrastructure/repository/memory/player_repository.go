package memory

import (
	"context"
	"sort"
	"sync"

	"esbtracker/internal/domain/player"
)

const defaultRankingLimit = 50

type PlayerRepository struct {
	mu         sync.RWMutex
	byNickname map[string]player.Player
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{byNickname: make(map[string]player.Player)}
}

func (r *PlayerRepository) Get(_ context.Context, nickname string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byNickname[nickname]
	return item, ok, nil
}

func (r *PlayerRepository) Upsert(_ context.Context, p player.Player) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byNickname[p.Nickname] = p
	return nil
}

func (r *PlayerRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copied := make(map[string]player.Player, len(r.byNickname))
	for nickname, item := range r.byNickname {
		copied[nickname] = item
	}
	return copied
}

func (r *PlayerRepository) restore(saved any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byNickname = saved.(map[string]player.Player)
}

func (r *PlayerRepository) Ranking(_ context.Context, minMatches, limit int) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]player.Player, 0, len(r.byNickname))
	for _, item := range r.byNickname {
		if item.Matches < minMatches {
			continue
		}
		rows = append(rows, item)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].WinRate() != rows[j].WinRate() {
			return rows[i].WinRate() > rows[j].WinRate()
		}
		if rows[i].Matches != rows[j].Matches {
			return rows[i].Matches > rows[j].Matches
		}
		return rows[i].Nickname < rows[j].Nickname
	})

	if limit <= 0 {
		limit = defaultRankingLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
