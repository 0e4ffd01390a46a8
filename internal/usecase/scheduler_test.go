package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"esbtracker/internal/domain/scanlog"
	"esbtracker/internal/platform/logging"
	"esbtracker/internal/usecase"
)

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	result  usecase.RunResult
}

func (r *blockingRunner) Run(context.Context) usecase.RunResult {
	close(r.started)
	<-r.release
	return r.result
}

func (r *blockingRunner) Cleanup(context.Context) (usecase.CleanupResult, error) {
	return usecase.CleanupResult{}, nil
}

func TestTriggerRun_SecondStartIsRefusedNotQueued(t *testing.T) {
	t.Parallel()

	runner := &blockingRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
		result:  usecase.RunResult{Found: 3, Status: scanlog.StatusSuccess},
	}
	scheduler, err := usecase.NewScheduler(runner, usecase.SchedulerConfig{}, logging.NewNop())
	require.NoError(t, err)
	defer scheduler.Stop()

	type triggerOutcome struct {
		result usecase.RunResult
		err    error
	}
	firstCh := make(chan triggerOutcome, 1)
	go func() {
		result, err := scheduler.TriggerRun(context.Background())
		firstCh <- triggerOutcome{result: result, err: err}
	}()

	<-runner.started

	state := scheduler.State()
	require.True(t, state.Running)

	_, err = scheduler.TriggerRun(context.Background())
	require.ErrorIs(t, err, usecase.ErrRunInProgress)

	close(runner.release)
	first := <-firstCh
	require.NoError(t, first.err)
	require.Equal(t, 3, first.result.Found)

	require.Eventually(t, func() bool {
		return !scheduler.State().Running
	}, time.Second, 10*time.Millisecond)
}

type countingRunner struct {
	results []usecase.RunResult
	calls   int
}

func (r *countingRunner) Run(context.Context) usecase.RunResult {
	result := r.results[r.calls%len(r.results)]
	r.calls++
	return result
}

func (r *countingRunner) Cleanup(context.Context) (usecase.CleanupResult, error) {
	return usecase.CleanupResult{MatchesDeleted: 2, ScansDeleted: 1}, nil
}

func TestScheduler_TracksRunCounters(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{results: []usecase.RunResult{
		{Found: 2, New: 2, Status: scanlog.StatusSuccess, Duration: 5 * time.Millisecond},
		{Status: scanlog.StatusSuccess},
		{Status: scanlog.StatusSuccess},
		{Status: scanlog.StatusFailure, Err: usecase.ErrUpstreamUnavailable},
	}}
	scheduler, err := usecase.NewScheduler(runner, usecase.SchedulerConfig{}, logging.NewNop())
	require.NoError(t, err)
	defer scheduler.Stop()

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := scheduler.TriggerRun(ctx)
		require.NoError(t, err)
	}

	state := scheduler.State()
	require.Equal(t, 4, state.TotalRuns)
	require.Equal(t, 3, state.Successes)
	require.Equal(t, 1, state.Failures)
	require.Zero(t, state.ConsecutiveEmpty, "failure resets the empty streak")
	require.NotNil(t, state.LastRun)
	require.Equal(t, scanlog.StatusFailure, state.LastRun.Status)
	require.NotEmpty(t, state.LastRun.ErrorDetail)
}

func TestScheduler_CountsConsecutiveEmptyRuns(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{results: []usecase.RunResult{{Status: scanlog.StatusSuccess}}}
	scheduler, err := usecase.NewScheduler(runner, usecase.SchedulerConfig{}, logging.NewNop())
	require.NoError(t, err)
	defer scheduler.Stop()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := scheduler.TriggerRun(ctx)
		require.NoError(t, err)
	}

	require.Equal(t, 3, scheduler.State().ConsecutiveEmpty)
}

func TestTriggerCleanup_RunsUnderTheSameSlot(t *testing.T) {
	t.Parallel()

	runner := &blockingRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	scheduler, err := usecase.NewScheduler(runner, usecase.SchedulerConfig{}, logging.NewNop())
	require.NoError(t, err)
	defer scheduler.Stop()

	go func() {
		_, _ = scheduler.TriggerRun(context.Background())
	}()
	<-runner.started

	_, err = scheduler.TriggerCleanup(context.Background())
	require.ErrorIs(t, err, usecase.ErrRunInProgress)

	close(runner.release)
}

func TestScheduler_IntervalTickDrivesRuns(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{results: []usecase.RunResult{{Found: 1, Status: scanlog.StatusSuccess}}}
	scheduler, err := usecase.NewScheduler(runner, usecase.SchedulerConfig{
		Interval:          20 * time.Millisecond,
		RetentionInterval: time.Hour,
	}, logging.NewNop())
	require.NoError(t, err)

	scheduler.Start(context.Background())
	require.Eventually(t, func() bool {
		return scheduler.State().TotalRuns >= 2
	}, 2*time.Second, 10*time.Millisecond)
	scheduler.Stop()
}
