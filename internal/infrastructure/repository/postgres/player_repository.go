package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"esbtracker/internal/domain/player"
	qb "esbtracker/internal/platform/querybuilder"
)

const defaultRankingLimit = 50

type playerTableModel struct {
	Nickname     string `db:"nickname"`
	Matches      int    `db:"matches"`
	Wins         int    `db:"wins"`
	Draws        int    `db:"draws"`
	Losses       int    `db:"losses"`
	GoalsFor     int    `db:"goals_for"`
	GoalsAgainst int    `db:"goals_against"`
}

func (m playerTableModel) toDomain() player.Player {
	return player.Player{
		Nickname:     m.Nickname,
		Matches:      m.Matches,
		Wins:         m.Wins,
		Draws:        m.Draws,
		Losses:       m.Losses,
		GoalsFor:     m.GoalsFor,
		GoalsAgainst: m.GoalsAgainst,
	}
}

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) Get(ctx context.Context, nickname string) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").Where(qb.Eq("nickname", nickname)).ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := executor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player %q: %w", nickname, err)
	}
	return row.toDomain(), true, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, p player.Player) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query, args, err := qb.InsertInto("players").
		Columns("nickname", "matches", "wins", "draws", "losses", "goals_for", "goals_against").
		Values(p.Nickname, p.Matches, p.Wins, p.Draws, p.Losses, p.GoalsFor, p.GoalsAgainst).
		Suffix(`ON CONFLICT (nickname) DO UPDATE SET
			matches = EXCLUDED.matches,
			wins = EXCLUDED.wins,
			draws = EXCLUDED.draws,
			losses = EXCLUDED.losses,
			goals_for = EXCLUDED.goals_for,
			goals_against = EXCLUDED.goals_against`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert player query: %w", err)
	}
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player %q: %w", p.Nickname, err)
	}
	return nil
}

func (r *PlayerRepository) Ranking(ctx context.Context, minMatches, limit int) ([]player.Player, error) {
	if limit <= 0 {
		limit = defaultRankingLimit
	}

	builder := qb.Select("*").From("players").
		OrderBy(
			"CASE WHEN matches > 0 THEN wins::float / matches ELSE 0 END DESC",
			"matches DESC",
			"nickname",
		).
		Limit(limit)
	if minMatches > 0 {
		builder.Where(qb.Gte("matches", minMatches))
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select ranking query: %w", err)
	}

	var rows []playerTableModel
	if err := executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player ranking: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
