package tournament

import "context"

// Repository describes tournament persistence needs from use cases.
type Repository interface {
	Upsert(ctx context.Context, tournaments []Tournament) error
	List(ctx context.Context) ([]Tournament, error)
}
