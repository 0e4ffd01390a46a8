package location

import "context"

// Repository describes location persistence needs from use cases.
type Repository interface {
	Upsert(ctx context.Context, locations []Location) error
	List(ctx context.Context) ([]Location, error)
}
