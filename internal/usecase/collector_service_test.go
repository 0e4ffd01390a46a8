package usecase_test

import (
	"context"
	"testing"

	"esbtracker/internal/domain/location"
	"esbtracker/internal/domain/match"
	"esbtracker/internal/domain/tournament"
	"esbtracker/internal/platform/logging"
	"esbtracker/internal/usecase"
)

func TestCollectActiveMatches_FiltersInactiveAndUnknownStatuses(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		locations: []location.Location{{ID: 7, Code: "arena", Name: "Arena"}},
		tournaments: []tournament.Tournament{
			{ID: 1, StatusID: tournament.StatusPlanned, LocationID: 7},
			{ID: 2, StatusID: tournament.StatusStarted, LocationID: 7},
			{ID: 3, StatusID: tournament.StatusFinished, LocationID: 7},
			{ID: 4, StatusID: tournament.StatusCanceled, LocationID: 7},
			{ID: 5, StatusID: 99, LocationID: 7},
		},
		matchesByTour: map[int64][]match.Match{
			1: {{ID: 10, TournamentID: 1}},
			2: {{ID: 20, TournamentID: 2}},
			3: {{ID: 30, TournamentID: 3}},
			5: {{ID: 50, TournamentID: 5}},
		},
	}

	collector := usecase.NewCollectorService(provider, logging.NewNop())
	collection, err := collector.CollectActiveMatches(context.Background())
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	if len(collection.Tournaments) != 2 {
		t.Fatalf("expected 2 active tournaments, got=%d", len(collection.Tournaments))
	}
	if len(collection.Matches) != 2 {
		t.Fatalf("expected matches only from active tournaments, got=%d", len(collection.Matches))
	}
	for _, item := range collection.Matches {
		if item.ID == 30 || item.ID == 50 {
			t.Fatalf("match %d from inactive tournament leaked into collection", item.ID)
		}
	}
}

func TestCollectActiveMatches_DuplicateMatchLastWins(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		locations: []location.Location{{ID: 7, Code: "arena"}},
		tournaments: []tournament.Tournament{
			{ID: 1, Token: "first", StatusID: tournament.StatusStarted, LocationID: 7},
			{ID: 2, Token: "second", StatusID: tournament.StatusStarted, LocationID: 7},
		},
		matchesByTour: map[int64][]match.Match{
			1: {{ID: 100, TournamentID: 1, StatusID: match.StatusScheduled}},
			2: {{ID: 100, TournamentID: 2, StatusID: match.StatusLive}},
		},
	}

	collector := usecase.NewCollectorService(provider, logging.NewNop())
	collection, err := collector.CollectActiveMatches(context.Background())
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	if len(collection.Matches) != 1 {
		t.Fatalf("expected deduplicated match list, got=%d", len(collection.Matches))
	}
	row := collection.Matches[0]
	if row.StatusID != match.StatusLive || row.TournamentName != "second" {
		t.Fatalf("expected last fetched row to win, got=%+v", row)
	}
}

func TestCollectActiveMatches_PerTournamentFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		locations: []location.Location{{ID: 7, Code: "arena"}},
		tournaments: []tournament.Tournament{
			{ID: 1, StatusID: tournament.StatusStarted, LocationID: 7},
			{ID: 2, StatusID: tournament.StatusStarted, LocationID: 7},
		},
		matchesByTour: map[int64][]match.Match{
			2: {{ID: 200, TournamentID: 2}},
		},
		failTournament: map[int64]error{1: usecase.ErrRateLimited},
	}

	collector := usecase.NewCollectorService(provider, logging.NewNop())
	collection, err := collector.CollectActiveMatches(context.Background())
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	if len(collection.Errors) != 1 {
		t.Fatalf("expected one tournament error, got=%d", len(collection.Errors))
	}
	if collection.Errors[0].TournamentID != 1 {
		t.Fatalf("unexpected failing tournament: %d", collection.Errors[0].TournamentID)
	}
	if len(collection.Matches) != 1 || collection.Matches[0].ID != 200 {
		t.Fatalf("expected the healthy tournament's matches, got=%+v", collection.Matches)
	}
}
