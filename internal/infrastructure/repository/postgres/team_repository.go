package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"esbtracker/internal/domain/team"
	qb "esbtracker/internal/platform/querybuilder"
)

type teamTableModel struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Token string `db:"token"`
}

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Upsert(ctx context.Context, items []team.Team) error {
	if len(items) == 0 {
		return nil
	}

	builder := qb.InsertInto("teams").
		Columns("id", "name", "token").
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			token = EXCLUDED.token`)
	for _, item := range items {
		builder.Values(item.ID, item.Name, item.Token)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert teams query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert teams: %w", err)
	}
	return nil
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").OrderBy("name", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, team.Team{
			ID:    row.ID,
			Name:  row.Name,
			Token: row.Token,
		})
	}
	return out, nil
}
