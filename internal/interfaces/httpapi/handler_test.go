package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"esbtracker/internal/domain/match"
	"esbtracker/internal/domain/player"
	"esbtracker/internal/domain/scanlog"
	"esbtracker/internal/infrastructure/repository/memory"
	"esbtracker/internal/usecase"
)

type stubScraper struct {
	state     usecase.SchedulerState
	runResult usecase.RunResult
	runErr    error
}

func (s *stubScraper) State() usecase.SchedulerState { return s.state }

func (s *stubScraper) TriggerRun(_ context.Context) (usecase.RunResult, error) {
	return s.runResult, s.runErr
}

func newTestRouter(t *testing.T, scraper ScraperControl) (http.Handler, *memory.MatchRepository, *memory.PlayerRepository) {
	t.Helper()

	matchRepo := memory.NewMatchRepository()
	playerRepo := memory.NewPlayerRepository()
	browse := usecase.NewBrowseService(
		memory.NewLocationRepository(),
		memory.NewTournamentRepository(),
		memory.NewTeamRepository(),
		matchRepo,
		playerRepo,
		memory.NewScanLogRepository(),
	)
	handler := NewHandler(browse, scraper, slog.Default())
	return NewRouter(handler, slog.Default(), []string{"*"}), matchRepo, playerRepo
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestHandler_ListMatches_FiltersByStatus(t *testing.T) {
	router, matchRepo, _ := newTestRouter(t, &stubScraper{})

	score := func(v int) *int { return &v }
	seed := []match.Match{
		{
			ID:           100,
			TournamentID: 11,
			Player1:      match.Participant{ID: 1, Nickname: "aguuero"},
			Player2:      match.Participant{ID: 2, Nickname: "Linox"},
			Score1:       score(2),
			Score2:       score(1),
			StatusID:     match.StatusFinished,
			StartAt:      time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
			SeenAt:       time.Now().UTC(),
		},
		{
			ID:           101,
			TournamentID: 11,
			Player1:      match.Participant{ID: 3, Nickname: "kray"},
			Player2:      match.Participant{ID: 4, Nickname: "dm1trena"},
			StatusID:     match.StatusLive,
			StartAt:      time.Date(2026, 8, 24, 11, 0, 0, 0, time.UTC),
			SeenAt:       time.Now().UTC(),
		},
	}
	for _, m := range seed {
		if err := matchRepo.Upsert(context.Background(), m); err != nil {
			t.Fatalf("seed match %d: %v", m.ID, err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/matches?status=finished", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %T", body["data"])
	}
	if len(data) != 1 {
		t.Fatalf("expected 1 finished match, got %d", len(data))
	}
	item := data[0].(map[string]any)
	if got, _ := item["status"].(string); got != "finished" {
		t.Fatalf("expected status finished, got %v", item["status"])
	}
	if got, _ := item["id"].(float64); int64(got) != 100 {
		t.Fatalf("expected match 100, got %v", item["id"])
	}
}

func TestHandler_ListMatches_RejectsUnknownStatus(t *testing.T) {
	router, _, _ := newTestRouter(t, &stubScraper{})

	req := httptest.NewRequest(http.MethodGet, "/api/matches?status=paused", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandler_ListMatches_RejectsNonIntegerLimit(t *testing.T) {
	router, _, _ := newTestRouter(t, &stubScraper{})

	req := httptest.NewRequest(http.MethodGet, "/api/matches?limit=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandler_PlayerRanking_OrdersByWinRate(t *testing.T) {
	router, _, playerRepo := newTestRouter(t, &stubScraper{})

	seed := []player.Player{
		{Nickname: "aguuero", Matches: 10, Wins: 8, Losses: 2, GoalsFor: 20, GoalsAgainst: 9},
		{Nickname: "Linox", Matches: 10, Wins: 4, Draws: 2, Losses: 4, GoalsFor: 12, GoalsAgainst: 13},
		{Nickname: "kray", Matches: 2, Wins: 2, GoalsFor: 5, GoalsAgainst: 1},
	}
	for _, p := range seed {
		if err := playerRepo.Upsert(context.Background(), p); err != nil {
			t.Fatalf("seed player %s: %v", p.Nickname, err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/players/ranking?min_matches=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %T", body["data"])
	}
	if len(data) != 2 {
		t.Fatalf("expected 2 ranked players, got %d", len(data))
	}
	first := data[0].(map[string]any)
	if got, _ := first["nickname"].(string); got != "aguuero" {
		t.Fatalf("expected aguuero first, got %v", first["nickname"])
	}
	if got, _ := first["winRate"].(float64); got != 80 {
		t.Fatalf("expected winRate 80, got %v", first["winRate"])
	}
}

func TestHandler_TriggerScraperRun_BusyIsConflict(t *testing.T) {
	router, _, _ := newTestRouter(t, &stubScraper{runErr: usecase.ErrRunInProgress})

	req := httptest.NewRequest(http.MethodPost, "/api/scraper/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}

	body := decodeEnvelope(t, rec)
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "ABORTED" {
		t.Fatalf("expected ABORTED, got %v", errorObj["status"])
	}
}

func TestHandler_TriggerScraperRun_ReturnsRunResult(t *testing.T) {
	router, _, _ := newTestRouter(t, &stubScraper{
		runResult: usecase.RunResult{
			Status:   scanlog.StatusSuccess,
			Found:    12,
			New:      3,
			Updated:  2,
			Duration: 850 * time.Millisecond,
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/scraper/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", body["data"])
	}
	if got, _ := data["status"].(string); got != "success" {
		t.Fatalf("expected status success, got %v", data["status"])
	}
	if got, _ := data["found"].(float64); int(got) != 12 {
		t.Fatalf("expected found=12, got %v", data["found"])
	}
	if got, _ := data["durationMs"].(float64); int64(got) != 850 {
		t.Fatalf("expected durationMs=850, got %v", data["durationMs"])
	}
}

func TestHandler_ScraperStatus_ReportsLastRun(t *testing.T) {
	started := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	router, _, _ := newTestRouter(t, &stubScraper{
		state: usecase.SchedulerState{
			TotalRuns: 5,
			Successes: 4,
			Failures:  1,
			LastRun: &usecase.RunSummary{
				StartedAt:  started,
				Status:     scanlog.StatusPartial,
				Found:      9,
				DurationMS: 1200,
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/scraper/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]any)
	if got, _ := data["state"].(string); got != "idle" {
		t.Fatalf("expected state idle, got %v", data["state"])
	}
	if got, _ := data["totalRuns"].(float64); int(got) != 5 {
		t.Fatalf("expected totalRuns=5, got %v", data["totalRuns"])
	}
	lastRun, ok := data["lastRun"].(map[string]any)
	if !ok {
		t.Fatalf("expected lastRun object, got %T", data["lastRun"])
	}
	if got, _ := lastRun["status"].(string); got != "partial" {
		t.Fatalf("expected partial, got %v", lastRun["status"])
	}
}

func TestHandler_Healthz(t *testing.T) {
	router, _, _ := newTestRouter(t, &stubScraper{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
