package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"esbtracker/internal/domain/scanlog"
	"esbtracker/internal/platform/logging"
)

// Runner is what the scheduler drives on each tick.
type Runner interface {
	Run(ctx context.Context) RunResult
	Cleanup(ctx context.Context) (CleanupResult, error)
}

// RunSummary is the last run's outcome as exposed over the API.
type RunSummary struct {
	StartedAt   time.Time
	Status      scanlog.Status
	Found       int
	New         int
	Updated     int
	Unchanged   int
	DurationMS  int64
	ErrorDetail string
}

// SchedulerState is a point-in-time snapshot of the scheduler.
type SchedulerState struct {
	Running          bool
	TotalRuns        int
	Successes        int
	Failures         int
	ConsecutiveEmpty int
	LastRun          *RunSummary
}

type SchedulerConfig struct {
	Interval          time.Duration
	RetentionInterval time.Duration
}

func (c SchedulerConfig) normalized() SchedulerConfig {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.RetentionInterval <= 0 {
		c.RetentionInterval = 7 * 24 * time.Hour
	}
	return c
}

// Scheduler owns the periodic collection loop. A single-slot
// non-blocking pool is the run gate: while one run holds the slot,
// every other start attempt is refused, never queued.
type Scheduler struct {
	runner Runner
	cfg    SchedulerConfig
	logger *logging.Logger
	pool   *ants.Pool

	mu               sync.Mutex
	running          bool
	totalRuns        int
	successes        int
	failures         int
	consecutiveEmpty int
	lastRun          *RunSummary

	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(runner Runner, cfg SchedulerConfig, logger *logging.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(1, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create scheduler pool: %w", err)
	}

	return &Scheduler{
		runner: runner,
		cfg:    cfg.normalized(),
		logger: logger,
		pool:   pool,
		done:   make(chan struct{}),
	}, nil
}

// Start launches the tick loop. It returns immediately; Stop shuts the
// loop down and waits for an in-flight run to finish.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.loop(ctx)
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}

	// Release waits out the in-flight task before tearing the pool down.
	s.pool.Release()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	scanTicker := time.NewTicker(s.cfg.Interval)
	defer scanTicker.Stop()
	retentionTicker := time.NewTicker(s.cfg.RetentionInterval)
	defer retentionTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-scanTicker.C:
			if err := s.pool.Submit(func() { s.execute(ctx) }); err != nil {
				s.logger.DebugContext(ctx, "scan tick skipped, previous run still in progress")
			}
		case <-retentionTicker.C:
			// Retention shares the run slot so cleanup never races a
			// reconciliation over the same rows.
			if err := s.pool.Submit(func() { s.cleanup(ctx) }); err != nil {
				s.logger.DebugContext(ctx, "retention tick skipped, run slot busy")
			}
		}
	}
}

// TriggerRun starts a run immediately and waits for its result. It
// returns ErrRunInProgress when the run slot is taken.
func (s *Scheduler) TriggerRun(ctx context.Context) (RunResult, error) {
	resultCh := make(chan RunResult, 1)
	if err := s.pool.Submit(func() { resultCh <- s.execute(ctx) }); err != nil {
		if err == ants.ErrPoolOverload {
			return RunResult{}, ErrRunInProgress
		}
		return RunResult{}, fmt.Errorf("submit run: %w", err)
	}

	select {
	case result := <-resultCh:
		return result, nil
	case <-ctx.Done():
		return RunResult{}, ctx.Err()
	}
}

// TriggerCleanup runs a retention pass immediately, under the run slot.
func (s *Scheduler) TriggerCleanup(ctx context.Context) (CleanupResult, error) {
	type outcome struct {
		result CleanupResult
		err    error
	}
	resultCh := make(chan outcome, 1)
	if err := s.pool.Submit(func() {
		result, err := s.cleanup(ctx)
		resultCh <- outcome{result: result, err: err}
	}); err != nil {
		if err == ants.ErrPoolOverload {
			return CleanupResult{}, ErrRunInProgress
		}
		return CleanupResult{}, fmt.Errorf("submit cleanup: %w", err)
	}

	select {
	case out := <-resultCh:
		return out.result, out.err
	case <-ctx.Done():
		return CleanupResult{}, ctx.Err()
	}
}

func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SchedulerState{
		Running:          s.running,
		TotalRuns:        s.totalRuns,
		Successes:        s.successes,
		Failures:         s.failures,
		ConsecutiveEmpty: s.consecutiveEmpty,
	}
	if s.lastRun != nil {
		summary := *s.lastRun
		state.LastRun = &summary
	}
	return state
}

func (s *Scheduler) execute(ctx context.Context) RunResult {
	startedAt := time.Now()
	s.setRunning(true)
	defer s.setRunning(false)

	result := s.runner.Run(ctx)

	s.mu.Lock()
	s.totalRuns++
	switch result.Status {
	case scanlog.StatusFailure:
		s.failures++
	default:
		s.successes++
	}
	if result.Found == 0 && result.Status != scanlog.StatusFailure {
		s.consecutiveEmpty++
	} else {
		s.consecutiveEmpty = 0
	}
	summary := RunSummary{
		StartedAt:  startedAt,
		Status:     result.Status,
		Found:      result.Found,
		New:        result.New,
		Updated:    result.Updated,
		Unchanged:  result.Unchanged,
		DurationMS: result.Duration.Milliseconds(),
	}
	if result.Err != nil {
		summary.ErrorDetail = result.Err.Error()
	}
	s.lastRun = &summary
	s.mu.Unlock()

	return result
}

func (s *Scheduler) cleanup(ctx context.Context) (CleanupResult, error) {
	s.setRunning(true)
	defer s.setRunning(false)

	result, err := s.runner.Cleanup(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "retention pass failed", "error", err)
	}
	return result, err
}

func (s *Scheduler) setRunning(running bool) {
	s.mu.Lock()
	s.running = running
	s.mu.Unlock()
}
