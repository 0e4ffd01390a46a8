package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"esbtracker/internal/domain/match"
	qb "esbtracker/internal/platform/querybuilder"
)

const defaultMatchListLimit = 100

type matchTableModel struct {
	ID              int64         `db:"id"`
	TournamentID    int64         `db:"tournament_id"`
	TournamentName  string        `db:"tournament_name"`
	LocationName    string        `db:"location_name"`
	Player1ID       int64         `db:"player1_id"`
	Player1Nickname string        `db:"player1_nickname"`
	Player1TeamID   int64         `db:"player1_team_id"`
	Player1TeamName string        `db:"player1_team_name"`
	Player2ID       int64         `db:"player2_id"`
	Player2Nickname string        `db:"player2_nickname"`
	Player2TeamID   int64         `db:"player2_team_id"`
	Player2TeamName string        `db:"player2_team_name"`
	Score1          sql.NullInt64 `db:"score1"`
	Score2          sql.NullInt64 `db:"score2"`
	StatusID        int           `db:"status_id"`
	StreamURL       string        `db:"stream_url"`
	StartAt         time.Time     `db:"start_at"`
	SeenAt          time.Time     `db:"seen_at"`
}

func (m matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:             m.ID,
		TournamentID:   m.TournamentID,
		TournamentName: m.TournamentName,
		LocationName:   m.LocationName,
		Player1: match.Participant{
			ID:       m.Player1ID,
			Nickname: m.Player1Nickname,
			TeamID:   m.Player1TeamID,
			TeamName: m.Player1TeamName,
		},
		Player2: match.Participant{
			ID:       m.Player2ID,
			Nickname: m.Player2Nickname,
			TeamID:   m.Player2TeamID,
			TeamName: m.Player2TeamName,
		},
		Score1:    nullIntToPtr(m.Score1),
		Score2:    nullIntToPtr(m.Score2),
		StatusID:  m.StatusID,
		StreamURL: m.StreamURL,
		StartAt:   m.StartAt,
		SeenAt:    m.SeenAt,
	}
}

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, id int64) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match query: %w", err)
	}

	var row matchTableModel
	if err := executor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match id=%d: %w", id, err)
	}
	return row.toDomain(), true, nil
}

func (r *MatchRepository) Upsert(ctx context.Context, m match.Match) error {
	if err := m.Validate(); err != nil {
		return err
	}

	query, args, err := qb.InsertInto("matches").
		Columns(
			"id", "tournament_id", "tournament_name", "location_name",
			"player1_id", "player1_nickname", "player1_team_id", "player1_team_name",
			"player2_id", "player2_nickname", "player2_team_id", "player2_team_name",
			"score1", "score2", "status_id", "stream_url", "start_at", "seen_at",
		).
		Values(
			m.ID, m.TournamentID, m.TournamentName, m.LocationName,
			m.Player1.ID, m.Player1.Nickname, m.Player1.TeamID, m.Player1.TeamName,
			m.Player2.ID, m.Player2.Nickname, m.Player2.TeamID, m.Player2.TeamName,
			ptrToNullInt(m.Score1), ptrToNullInt(m.Score2), m.StatusID, m.StreamURL, m.StartAt, m.SeenAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			tournament_id = EXCLUDED.tournament_id,
			tournament_name = EXCLUDED.tournament_name,
			location_name = EXCLUDED.location_name,
			player1_id = EXCLUDED.player1_id,
			player1_nickname = EXCLUDED.player1_nickname,
			player1_team_id = EXCLUDED.player1_team_id,
			player1_team_name = EXCLUDED.player1_team_name,
			player2_id = EXCLUDED.player2_id,
			player2_nickname = EXCLUDED.player2_nickname,
			player2_team_id = EXCLUDED.player2_team_id,
			player2_team_name = EXCLUDED.player2_team_name,
			score1 = EXCLUDED.score1,
			score2 = EXCLUDED.score2,
			status_id = EXCLUDED.status_id,
			stream_url = EXCLUDED.stream_url,
			start_at = EXCLUDED.start_at,
			seen_at = EXCLUDED.seen_at`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert match query: %w", err)
	}
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match id=%d: %w", m.ID, err)
	}
	return nil
}

func (r *MatchRepository) List(ctx context.Context, filter match.ListFilter) ([]match.Match, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultMatchListLimit
	}

	builder := qb.Select("*").From("matches").
		OrderBy("start_at DESC", "id DESC").
		Limit(limit).
		Offset(filter.Offset)
	if filter.StatusID != 0 {
		builder.Where(qb.Eq("status_id", filter.StatusID))
	}
	if filter.LocationName != "" {
		builder.Where(qb.Eq("location_name", filter.LocationName))
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MatchRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := qb.DeleteFrom("matches").Where(qb.Lt("seen_at", cutoff)).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete matches query: %w", err)
	}

	result, err := executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete old matches: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted matches: %w", err)
	}
	return deleted, nil
}
