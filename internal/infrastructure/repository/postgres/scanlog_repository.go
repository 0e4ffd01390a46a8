package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"esbtracker/internal/domain/scanlog"
	qb "esbtracker/internal/platform/querybuilder"
)

const defaultScanListLimit = 50

type scanLogTableModel struct {
	ID          int64     `db:"id"`
	StartedAt   time.Time `db:"started_at"`
	Status      string    `db:"status"`
	Found       int       `db:"found"`
	New         int       `db:"new_count"`
	Updated     int       `db:"updated_count"`
	DurationMS  int64     `db:"duration_ms"`
	ErrorDetail string    `db:"error_detail"`
}

func (m scanLogTableModel) toDomain() scanlog.Entry {
	return scanlog.Entry{
		ID:          m.ID,
		StartedAt:   m.StartedAt,
		Status:      scanlog.Status(m.Status),
		Found:       m.Found,
		New:         m.New,
		Updated:     m.Updated,
		DurationMS:  m.DurationMS,
		ErrorDetail: m.ErrorDetail,
	}
}

type ScanLogRepository struct {
	db *sqlx.DB
}

func NewScanLogRepository(db *sqlx.DB) *ScanLogRepository {
	return &ScanLogRepository{db: db}
}

func (r *ScanLogRepository) Append(ctx context.Context, e scanlog.Entry) (scanlog.Entry, error) {
	if err := e.Validate(); err != nil {
		return scanlog.Entry{}, err
	}

	query, args, err := qb.InsertInto("scan_logs").
		Columns("started_at", "status", "found", "new_count", "updated_count", "duration_ms", "error_detail").
		Values(e.StartedAt, string(e.Status), e.Found, e.New, e.Updated, e.DurationMS, e.ErrorDetail).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		return scanlog.Entry{}, fmt.Errorf("build insert scan entry query: %w", err)
	}

	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&e.ID); err != nil {
		return scanlog.Entry{}, fmt.Errorf("insert scan entry: %w", err)
	}
	return e, nil
}

func (r *ScanLogRepository) ListRecent(ctx context.Context, limit int) ([]scanlog.Entry, error) {
	if limit <= 0 {
		limit = defaultScanListLimit
	}

	query, args, err := qb.Select("*").From("scan_logs").
		OrderBy("started_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select scan entries query: %w", err)
	}

	var rows []scanLogTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select scan entries: %w", err)
	}

	out := make([]scanlog.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ScanLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := qb.DeleteFrom("scan_logs").Where(qb.Lt("started_at", cutoff)).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete scan entries query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete old scan entries: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted scan entries: %w", err)
	}
	return deleted, nil
}
