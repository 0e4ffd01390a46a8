package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"esbtracker/internal/domain/location"
	qb "esbtracker/internal/platform/querybuilder"
)

type locationTableModel struct {
	ID       int64  `db:"id"`
	Code     string `db:"code"`
	Name     string `db:"name"`
	Color    string `db:"color"`
	StatusID int    `db:"status_id"`
}

type LocationRepository struct {
	db *sqlx.DB
}

func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Upsert(ctx context.Context, items []location.Location) error {
	if len(items) == 0 {
		return nil
	}

	builder := qb.InsertInto("locations").
		Columns("id", "code", "name", "color", "status_id").
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			name = EXCLUDED.name,
			color = EXCLUDED.color,
			status_id = EXCLUDED.status_id`)
	for _, item := range items {
		builder.Values(item.ID, item.Code, item.Name, item.Color, item.StatusID)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert locations query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert locations: %w", err)
	}
	return nil
}

func (r *LocationRepository) List(ctx context.Context) ([]location.Location, error) {
	query, args, err := qb.Select("*").From("locations").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select locations query: %w", err)
	}

	var rows []locationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select locations: %w", err)
	}

	out := make([]location.Location, 0, len(rows))
	for _, row := range rows {
		out = append(out, location.Location{
			ID:       row.ID,
			Code:     row.Code,
			Name:     row.Name,
			Color:    row.Color,
			StatusID: row.StatusID,
		})
	}
	return out, nil
}
