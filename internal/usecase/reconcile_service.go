package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"esbtracker/internal/domain/location"
	"esbtracker/internal/domain/match"
	"esbtracker/internal/domain/player"
	"esbtracker/internal/domain/scanlog"
	"esbtracker/internal/domain/team"
	"esbtracker/internal/domain/tournament"
	"esbtracker/internal/platform/logging"
)

// RunResult summarizes one collection-and-reconciliation run.
type RunResult struct {
	Found     int
	New       int
	Updated   int
	Unchanged int
	Status    scanlog.Status
	Duration  time.Duration
	Err       error
}

// CleanupResult reports one retention pass.
type CleanupResult struct {
	MatchesDeleted int64
	ScansDeleted   int64
}

// TxRunner runs fn as one atomic unit against storage: either every
// write made inside fn is visible afterwards, or none of them is.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ReconcileConfig struct {
	MatchRetention time.Duration
	ScanRetention  time.Duration
}

func (c ReconcileConfig) normalized() ReconcileConfig {
	if c.MatchRetention <= 0 {
		c.MatchRetention = 30 * 24 * time.Hour
	}
	if c.ScanRetention <= 0 {
		c.ScanRetention = 90 * 24 * time.Hour
	}
	return c
}

type ReconcileService struct {
	collector      *CollectorService
	locationRepo   location.Repository
	tournamentRepo tournament.Repository
	teamRepo       team.Repository
	matchRepo      match.Repository
	playerRepo     player.Repository
	scanRepo       scanlog.Repository
	tx             TxRunner
	cfg            ReconcileConfig
	logger         *logging.Logger
	now            func() time.Time
}

func NewReconcileService(
	collector *CollectorService,
	locationRepo location.Repository,
	tournamentRepo tournament.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	playerRepo player.Repository,
	scanRepo scanlog.Repository,
	tx TxRunner,
	cfg ReconcileConfig,
	logger *logging.Logger,
) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReconcileService{
		collector:      collector,
		locationRepo:   locationRepo,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		playerRepo:     playerRepo,
		scanRepo:       scanRepo,
		tx:             tx,
		cfg:            cfg.normalized(),
		logger:         logger,
		now:            time.Now,
	}
}

// Run performs one full collect-diff-persist cycle and appends a scan
// log entry describing it. It never panics the caller's goroutine; the
// failure mode is a RunResult with Status failure and Err set.
func (s *ReconcileService) Run(ctx context.Context) RunResult {
	ctx, span := startUsecaseSpan(ctx, "reconcile.Run")
	defer span.End()

	startedAt := s.now()

	collection, err := s.collector.CollectActiveMatches(ctx)
	if err != nil {
		result := RunResult{
			Status:   scanlog.StatusFailure,
			Duration: s.now().Sub(startedAt),
			Err:      err,
		}
		s.appendScanEntry(ctx, startedAt, result)
		return result
	}

	if err := s.persistReferenceData(ctx, collection); err != nil {
		result := RunResult{
			Found:    len(collection.Matches),
			Status:   scanlog.StatusFailure,
			Duration: s.now().Sub(startedAt),
			Err:      err,
		}
		s.appendScanEntry(ctx, startedAt, result)
		return result
	}

	result := RunResult{Found: len(collection.Matches)}
	seenAt := s.now()
	for _, incoming := range collection.Matches {
		incoming.SeenAt = seenAt
		outcome, err := s.reconcileMatch(ctx, incoming)
		if err != nil {
			// Storage is shared state: stop instead of writing a
			// half-reconciled scan on a broken connection.
			result.Status = scanlog.StatusFailure
			result.Err = fmt.Errorf("%w: %v", ErrStorage, err)
			result.Duration = s.now().Sub(startedAt)
			s.appendScanEntry(ctx, startedAt, result)
			return result
		}
		switch outcome {
		case matchOutcomeNew:
			result.New++
		case matchOutcomeUpdated:
			result.Updated++
		default:
			result.Unchanged++
		}
	}

	result.Status = scanlog.StatusSuccess
	if len(collection.Errors) > 0 {
		result.Status = scanlog.StatusPartial
		result.Err = joinTournamentErrors(collection.Errors)
	}
	result.Duration = s.now().Sub(startedAt)
	s.appendScanEntry(ctx, startedAt, result)

	s.logger.InfoContext(ctx, "collection run finished",
		"status", string(result.Status),
		"found", result.Found,
		"new", result.New,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result
}

// Cleanup deletes matches and scan entries older than the configured
// retention windows.
func (s *ReconcileService) Cleanup(ctx context.Context) (CleanupResult, error) {
	ctx, span := startUsecaseSpan(ctx, "reconcile.Cleanup")
	defer span.End()

	now := s.now()
	matchesDeleted, err := s.matchRepo.DeleteOlderThan(ctx, now.Add(-s.cfg.MatchRetention))
	if err != nil {
		return CleanupResult{}, fmt.Errorf("%w: delete old matches: %v", ErrStorage, err)
	}
	scansDeleted, err := s.scanRepo.DeleteOlderThan(ctx, now.Add(-s.cfg.ScanRetention))
	if err != nil {
		return CleanupResult{MatchesDeleted: matchesDeleted}, fmt.Errorf("%w: delete old scan entries: %v", ErrStorage, err)
	}

	s.logger.InfoContext(ctx, "retention pass finished",
		"matches_deleted", matchesDeleted,
		"scans_deleted", scansDeleted,
	)
	return CleanupResult{MatchesDeleted: matchesDeleted, ScansDeleted: scansDeleted}, nil
}

type matchOutcome int

const (
	matchOutcomeUnchanged matchOutcome = iota
	matchOutcomeNew
	matchOutcomeUpdated
)

func (s *ReconcileService) reconcileMatch(ctx context.Context, incoming match.Match) (matchOutcome, error) {
	stored, exists, err := s.matchRepo.GetByID(ctx, incoming.ID)
	if err != nil {
		return matchOutcomeUnchanged, fmt.Errorf("get match id=%d: %w", incoming.ID, err)
	}

	if exists && stored.Equal(incoming) {
		return matchOutcomeUnchanged, nil
	}

	// The match row and the aggregates its finish unlocks move in one
	// transaction. A finished row landing without its player credits
	// would consume the only transition that triggers them.
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.matchRepo.Upsert(ctx, incoming); err != nil {
			return fmt.Errorf("upsert match id=%d: %w", incoming.ID, err)
		}
		// Aggregates move only on the first observed transition to
		// finished. Later score corrections update the match row alone.
		if incoming.IsFinished() && !(exists && stored.IsFinished()) {
			return s.applyFinishedMatch(ctx, incoming)
		}
		return nil
	})
	if err != nil {
		return matchOutcomeUnchanged, err
	}

	if exists {
		return matchOutcomeUpdated, nil
	}
	return matchOutcomeNew, nil
}

func (s *ReconcileService) applyFinishedMatch(ctx context.Context, m match.Match) error {
	if !m.HasScore() {
		s.logger.WarnContext(ctx, "finished match has no score, skipping player aggregates", "match_id", m.ID)
		return nil
	}

	if err := s.recordPlayerResult(ctx, m.Player1.Nickname, *m.Score1, *m.Score2); err != nil {
		return err
	}
	return s.recordPlayerResult(ctx, m.Player2.Nickname, *m.Score2, *m.Score1)
}

func (s *ReconcileService) recordPlayerResult(ctx context.Context, nickname string, goalsFor, goalsAgainst int) error {
	if nickname == "" {
		return nil
	}

	row, exists, err := s.playerRepo.Get(ctx, nickname)
	if err != nil {
		return fmt.Errorf("get player %q: %w", nickname, err)
	}
	if !exists {
		row = player.Player{Nickname: nickname}
	}
	row.Record(goalsFor, goalsAgainst)
	if err := s.playerRepo.Upsert(ctx, row); err != nil {
		return fmt.Errorf("upsert player %q: %w", nickname, err)
	}
	return nil
}

func (s *ReconcileService) persistReferenceData(ctx context.Context, collection Collection) error {
	if len(collection.Locations) > 0 {
		if err := s.locationRepo.Upsert(ctx, collection.Locations); err != nil {
			return fmt.Errorf("%w: upsert locations: %v", ErrStorage, err)
		}
	}
	if len(collection.Tournaments) > 0 {
		if err := s.tournamentRepo.Upsert(ctx, collection.Tournaments); err != nil {
			return fmt.Errorf("%w: upsert tournaments: %v", ErrStorage, err)
		}
	}

	teams, err := s.collector.CollectTeams(ctx)
	if err != nil {
		// Teams are reference data only; a failed team sync does not
		// block match reconciliation.
		s.logger.WarnContext(ctx, "team sync failed, keeping previous team rows", "error", err)
		return nil
	}
	if len(teams) > 0 {
		if err := s.teamRepo.Upsert(ctx, teams); err != nil {
			return fmt.Errorf("%w: upsert teams: %v", ErrStorage, err)
		}
	}
	return nil
}

func (s *ReconcileService) appendScanEntry(ctx context.Context, startedAt time.Time, result RunResult) {
	entry := scanlog.Entry{
		StartedAt:  startedAt,
		Status:     result.Status,
		Found:      result.Found,
		New:        result.New,
		Updated:    result.Updated,
		DurationMS: result.Duration.Milliseconds(),
	}
	if result.Err != nil {
		entry.ErrorDetail = result.Err.Error()
	}

	if _, err := s.scanRepo.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "append scan entry failed", "error", err)
	}
}

func joinTournamentErrors(items []TournamentError) error {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Error())
	}
	return fmt.Errorf("%d tournament(s) failed: %s", len(items), strings.Join(parts, "; "))
}
