package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"esbtracker/internal/domain/location"
	"esbtracker/internal/domain/match"
	"esbtracker/internal/domain/player"
	"esbtracker/internal/domain/scanlog"
	"esbtracker/internal/domain/team"
	"esbtracker/internal/domain/tournament"
	"esbtracker/internal/infrastructure/repository/memory"
	"esbtracker/internal/platform/logging"
	"esbtracker/internal/usecase"
)

type fakeProvider struct {
	locations      []location.Location
	tournaments    []tournament.Tournament
	teams          []team.Team
	matchesByTour  map[int64][]match.Match
	failTournament map[int64]error
	locationsErr   error
	tournamentsErr error
}

func (p *fakeProvider) Locations(context.Context) ([]location.Location, error) {
	if p.locationsErr != nil {
		return nil, p.locationsErr
	}
	return p.locations, nil
}

func (p *fakeProvider) TournamentsPage(_ context.Context, page int) ([]tournament.Tournament, int, error) {
	if p.tournamentsErr != nil {
		return nil, 0, p.tournamentsErr
	}
	if page > 1 {
		return nil, 1, nil
	}
	return p.tournaments, 1, nil
}

func (p *fakeProvider) TeamsPage(_ context.Context, page int) ([]team.Team, int, error) {
	if page > 1 {
		return nil, 1, nil
	}
	return p.teams, 1, nil
}

func (p *fakeProvider) TournamentMatches(_ context.Context, tournamentID int64) ([]match.Match, error) {
	if err := p.failTournament[tournamentID]; err != nil {
		return nil, err
	}
	return p.matchesByTour[tournamentID], nil
}

type fixture struct {
	provider   *fakeProvider
	service    *usecase.ReconcileService
	matches    *memory.MatchRepository
	players    *memory.PlayerRepository
	scans      *memory.ScanLogRepository
	teams      *memory.TeamRepository
	locs       *memory.LocationRepository
	tournament *memory.TournamentRepository
}

func newFixture(t *testing.T, provider *fakeProvider) fixture {
	t.Helper()

	logger := logging.NewNop()
	collector := usecase.NewCollectorService(provider, logger)
	f := fixture{
		provider:   provider,
		matches:    memory.NewMatchRepository(),
		players:    memory.NewPlayerRepository(),
		scans:      memory.NewScanLogRepository(),
		teams:      memory.NewTeamRepository(),
		locs:       memory.NewLocationRepository(),
		tournament: memory.NewTournamentRepository(),
	}
	f.service = usecase.NewReconcileService(
		collector,
		f.locs,
		f.tournament,
		f.teams,
		f.matches,
		f.players,
		f.scans,
		memory.NewTxRunner(f.matches, f.players),
		usecase.ReconcileConfig{},
		logger,
	)
	return f
}

func ptrInt(v int) *int { return &v }

func liveDerby() *fakeProvider {
	return &fakeProvider{
		locations: []location.Location{
			{ID: 7, Code: "cyber_arena", Name: "Cyber Arena", StatusID: 1},
		},
		tournaments: []tournament.Tournament{
			{ID: 11, Name: "Evening Cup", Token: "evening_cup", StatusID: tournament.StatusStarted, LocationID: 7},
		},
		teams: []team.Team{
			{ID: 5, Name: "Manchester City", Token: "mci"},
			{ID: 6, Name: "Real Madrid", Token: "rma"},
		},
		matchesByTour: map[int64][]match.Match{
			11: {{
				ID:           100,
				TournamentID: 11,
				Player1:      match.Participant{ID: 1, Nickname: "aguuero", TeamID: 5, TeamName: "Manchester City"},
				Player2:      match.Participant{ID: 2, Nickname: "Linox", TeamID: 6, TeamName: "Real Madrid"},
				Score1:       ptrInt(1),
				Score2:       ptrInt(1),
				StatusID:     match.StatusLive,
				StartAt:      time.Date(2026, 8, 24, 12, 30, 0, 0, time.UTC),
			}},
		},
	}
}

func TestRun_NewLiveMatchThenFinishUpdatesPlayersOnce(t *testing.T) {
	t.Parallel()

	provider := liveDerby()
	f := newFixture(t, provider)
	ctx := context.Background()

	// Scan 1: the match appears live at 1-1.
	result := f.service.Run(ctx)
	require.NoError(t, result.Err)
	require.Equal(t, scanlog.StatusSuccess, result.Status)
	require.Equal(t, 1, result.Found)
	require.Equal(t, 1, result.New)
	require.Equal(t, 0, result.Updated)

	_, exists, err := f.players.Get(ctx, "aguuero")
	require.NoError(t, err)
	require.False(t, exists, "live match must not touch player aggregates")

	// Scan 2: same match finishes 2-1.
	row := provider.matchesByTour[11][0]
	row.Score1 = ptrInt(2)
	row.StatusID = match.StatusFinished
	provider.matchesByTour[11][0] = row

	result = f.service.Run(ctx)
	require.NoError(t, result.Err)
	require.Equal(t, 1, result.Updated)
	require.Equal(t, 0, result.New)

	winner, exists, err := f.players.Get(ctx, "aguuero")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, 1, winner.Matches)
	require.Equal(t, 1, winner.Wins)
	require.Equal(t, 2, winner.GoalsFor)
	require.Equal(t, 1, winner.GoalsAgainst)
	require.InDelta(t, 100.0, winner.WinRate(), 0.01)

	loser, _, err := f.players.Get(ctx, "Linox")
	require.NoError(t, err)
	require.Equal(t, 1, loser.Losses)
	require.Equal(t, 1, loser.GoalsFor)
	require.Equal(t, 2, loser.GoalsAgainst)

	// Scan 3: score correction after the finish. The match row moves,
	// the aggregates do not.
	row = provider.matchesByTour[11][0]
	row.Score1 = ptrInt(3)
	provider.matchesByTour[11][0] = row

	result = f.service.Run(ctx)
	require.NoError(t, result.Err)
	require.Equal(t, 1, result.Updated)

	stored, exists, err := f.matches.GetByID(ctx, 100)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, 3, *stored.Score1)

	winner, _, err = f.players.Get(ctx, "aguuero")
	require.NoError(t, err)
	require.Equal(t, 1, winner.Matches, "score correction must not double-count")
	require.Equal(t, 2, winner.GoalsFor)
}

func TestRun_UnchangedMatchWritesNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, liveDerby())
	ctx := context.Background()

	first := f.service.Run(ctx)
	require.Equal(t, 1, first.New)

	second := f.service.Run(ctx)
	require.Equal(t, 0, second.New)
	require.Equal(t, 0, second.Updated)
	require.Equal(t, 1, second.Unchanged)
}

func TestRun_EmptyWindowIsSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeProvider{
		locations:   []location.Location{{ID: 1, Code: "arena"}},
		tournaments: nil,
	})

	result := f.service.Run(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, scanlog.StatusSuccess, result.Status)
	require.Zero(t, result.Found)
	require.Zero(t, result.New)

	entries, err := f.scans.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, scanlog.StatusSuccess, entries[0].Status)
}

func TestRun_TournamentFailureIsPartial(t *testing.T) {
	t.Parallel()

	provider := liveDerby()
	provider.tournaments = append(provider.tournaments, tournament.Tournament{
		ID: 12, Name: "Broken Cup", StatusID: tournament.StatusStarted, LocationID: 7,
	})
	provider.failTournament = map[int64]error{12: usecase.ErrUpstreamUnavailable}

	f := newFixture(t, provider)
	result := f.service.Run(context.Background())

	require.Equal(t, scanlog.StatusPartial, result.Status)
	require.Equal(t, 1, result.Found, "healthy tournament must still be processed")
	require.Equal(t, 1, result.New)
	require.Error(t, result.Err)

	entries, err := f.scans.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, scanlog.StatusPartial, entries[0].Status)
	require.NotEmpty(t, entries[0].ErrorDetail)
}

func TestRun_CollectionFailureIsLoggedAsFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeProvider{tournamentsErr: usecase.ErrUpstreamUnavailable})

	result := f.service.Run(context.Background())
	require.Equal(t, scanlog.StatusFailure, result.Status)
	require.ErrorIs(t, result.Err, usecase.ErrUpstreamUnavailable)

	entries, err := f.scans.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, scanlog.StatusFailure, entries[0].Status)
}

type failingMatchRepo struct {
	*memory.MatchRepository
}

func (r failingMatchRepo) Upsert(context.Context, match.Match) error {
	return errors.New("connection reset")
}

func TestRun_StorageFailureAbortsRun(t *testing.T) {
	t.Parallel()

	provider := liveDerby()
	logger := logging.NewNop()
	collector := usecase.NewCollectorService(provider, logger)
	scans := memory.NewScanLogRepository()
	matches := memory.NewMatchRepository()
	players := memory.NewPlayerRepository()
	service := usecase.NewReconcileService(
		collector,
		memory.NewLocationRepository(),
		memory.NewTournamentRepository(),
		memory.NewTeamRepository(),
		failingMatchRepo{matches},
		players,
		scans,
		memory.NewTxRunner(matches, players),
		usecase.ReconcileConfig{},
		logger,
	)

	result := service.Run(context.Background())
	require.Equal(t, scanlog.StatusFailure, result.Status)
	require.ErrorIs(t, result.Err, usecase.ErrStorage)

	entries, err := scans.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, scanlog.StatusFailure, entries[0].Status)
}

type flakyPlayerRepo struct {
	*memory.PlayerRepository
	failOnCall int
	calls      int
}

func (r *flakyPlayerRepo) Upsert(ctx context.Context, p player.Player) error {
	r.calls++
	if r.calls == r.failOnCall {
		return errors.New("connection reset")
	}
	return r.PlayerRepository.Upsert(ctx, p)
}

func TestRun_PlayerWriteFailureRollsBackFinishedMatch(t *testing.T) {
	t.Parallel()

	provider := liveDerby()
	logger := logging.NewNop()
	collector := usecase.NewCollectorService(provider, logger)
	matches := memory.NewMatchRepository()
	playerStore := memory.NewPlayerRepository()
	// First credit lands, second one fails mid-unit.
	players := &flakyPlayerRepo{PlayerRepository: playerStore, failOnCall: 2}
	scans := memory.NewScanLogRepository()
	service := usecase.NewReconcileService(
		collector,
		memory.NewLocationRepository(),
		memory.NewTournamentRepository(),
		memory.NewTeamRepository(),
		matches,
		players,
		scans,
		memory.NewTxRunner(matches, playerStore),
		usecase.ReconcileConfig{},
		logger,
	)
	ctx := context.Background()

	// Scan 1: the match appears live. Player writes are not involved.
	result := service.Run(ctx)
	require.NoError(t, result.Err)
	require.Equal(t, 1, result.New)

	// Scan 2: the match finishes 2-1 but the second player write fails.
	// Neither the finished row nor the first credit may survive.
	row := provider.matchesByTour[11][0]
	row.Score1 = ptrInt(2)
	row.StatusID = match.StatusFinished
	provider.matchesByTour[11][0] = row

	result = service.Run(ctx)
	require.Equal(t, scanlog.StatusFailure, result.Status)
	require.ErrorIs(t, result.Err, usecase.ErrStorage)

	stored, exists, err := matches.GetByID(ctx, 100)
	require.NoError(t, err)
	require.True(t, exists)
	require.False(t, stored.IsFinished(), "failed scan must not consume the finish transition")

	_, exists, err = playerStore.Get(ctx, "aguuero")
	require.NoError(t, err)
	require.False(t, exists, "partial credit must be rolled back with the match row")

	// Scan 3: storage recovered. The finish is observed again and both
	// players are credited exactly once.
	result = service.Run(ctx)
	require.NoError(t, result.Err)
	require.Equal(t, 1, result.Updated)

	winner, exists, err := playerStore.Get(ctx, "aguuero")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, 1, winner.Matches)
	require.Equal(t, 1, winner.Wins)

	loser, exists, err := playerStore.Get(ctx, "Linox")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, 1, loser.Matches)
	require.Equal(t, 1, loser.Losses)
}

func TestRun_PersistsReferenceData(t *testing.T) {
	t.Parallel()

	f := newFixture(t, liveDerby())
	ctx := context.Background()

	result := f.service.Run(ctx)
	require.NoError(t, result.Err)

	locations, err := f.locs.List(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 1)

	tournaments, err := f.tournament.List(ctx)
	require.NoError(t, err)
	require.Len(t, tournaments, 1)

	teams, err := f.teams.List(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 2)

	stored, exists, err := f.matches.GetByID(ctx, 100)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "Evening Cup", stored.TournamentName)
	require.Equal(t, "Cyber Arena", stored.LocationName)
}

func TestCleanup_DeletesByRetentionWindows(t *testing.T) {
	t.Parallel()

	f := newFixture(t, liveDerby())
	ctx := context.Background()

	old := match.Match{
		ID:           900,
		TournamentID: 11,
		StatusID:     match.StatusFinished,
		SeenAt:       time.Now().Add(-40 * 24 * time.Hour),
	}
	require.NoError(t, f.matches.Upsert(ctx, old))
	_, err := f.scans.Append(ctx, scanlog.Entry{
		StartedAt: time.Now().Add(-120 * 24 * time.Hour),
		Status:    scanlog.StatusSuccess,
	})
	require.NoError(t, err)

	result, err := f.service.Cleanup(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), result.MatchesDeleted)
	require.Equal(t, int64(1), result.ScansDeleted)

	_, exists, err := f.matches.GetByID(ctx, 900)
	require.NoError(t, err)
	require.False(t, exists)
}
