package player

import "context"

// Repository describes player aggregate persistence needs from use cases.
type Repository interface {
	Get(ctx context.Context, nickname string) (Player, bool, error)
	Upsert(ctx context.Context, p Player) error
	Ranking(ctx context.Context, minMatches, limit int) ([]Player, error)
}
