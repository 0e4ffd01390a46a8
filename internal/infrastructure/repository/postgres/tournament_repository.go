package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"esbtracker/internal/domain/tournament"
	qb "esbtracker/internal/platform/querybuilder"
)

type tournamentTableModel struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	Token      string    `db:"token"`
	StatusID   int       `db:"status_id"`
	LocationID int64     `db:"location_id"`
	Date       time.Time `db:"date"`
}

type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) Upsert(ctx context.Context, items []tournament.Tournament) error {
	if len(items) == 0 {
		return nil
	}

	builder := qb.InsertInto("tournaments").
		Columns("id", "name", "token", "status_id", "location_id", "date").
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			token = EXCLUDED.token,
			status_id = EXCLUDED.status_id,
			location_id = EXCLUDED.location_id,
			date = EXCLUDED.date`)
	for _, item := range items {
		builder.Values(item.ID, item.Name, item.Token, item.StatusID, item.LocationID, item.Date)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert tournaments query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert tournaments: %w", err)
	}
	return nil
}

func (r *TournamentRepository) List(ctx context.Context) ([]tournament.Tournament, error) {
	query, args, err := qb.Select("*").From("tournaments").OrderBy("date DESC", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select tournaments query: %w", err)
	}

	var rows []tournamentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select tournaments: %w", err)
	}

	out := make([]tournament.Tournament, 0, len(rows))
	for _, row := range rows {
		out = append(out, tournament.Tournament{
			ID:         row.ID,
			Name:       row.Name,
			Token:      row.Token,
			StatusID:   row.StatusID,
			LocationID: row.LocationID,
			Date:       row.Date,
		})
	}
	return out, nil
}
