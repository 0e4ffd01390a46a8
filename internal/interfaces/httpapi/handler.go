package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"esbtracker/internal/domain/match"
	"esbtracker/internal/domain/player"
	"esbtracker/internal/domain/scanlog"
	"esbtracker/internal/usecase"
)

// ScraperControl is the scheduler surface the API exposes.
type ScraperControl interface {
	State() usecase.SchedulerState
	TriggerRun(ctx context.Context) (usecase.RunResult, error)
}

type Handler struct {
	browseService *usecase.BrowseService
	scraper       ScraperControl
	logger        *slog.Logger
	validator     *validator.Validate
}

func NewHandler(browseService *usecase.BrowseService, scraper ScraperControl, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		browseService: browseService,
		scraper:       scraper,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLocations")
	defer span.End()

	items, err := h.browseService.ListLocations(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list locations failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]locationDTO, 0, len(items))
	for _, item := range items {
		out = append(out, locationDTO{
			ID:     item.ID,
			Code:   item.Code,
			Name:   item.DisplayName(),
			Color:  item.Color,
			Status: item.StatusID,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournaments")
	defer span.End()

	items, err := h.browseService.ListTournaments(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list tournaments failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]tournamentDTO, 0, len(items))
	for _, item := range items {
		out = append(out, tournamentDTO{
			ID:         item.ID,
			Name:       item.DisplayName(),
			Token:      item.Token,
			StatusID:   item.StatusID,
			Active:     item.IsActive(),
			LocationID: item.LocationID,
			Date:       timeOrNil(item.Date),
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	items, err := h.browseService.ListTeams(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]teamDTO, 0, len(items))
	for _, item := range items {
		out = append(out, teamDTO{
			ID:    item.ID,
			Name:  item.DisplayName(),
			Token: item.Token,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

type matchListQuery struct {
	Status   string `validate:"omitempty,oneof=scheduled live finished canceled"`
	Location string `validate:"omitempty,max=128"`
	Limit    int    `validate:"gte=0,lte=500"`
	Offset   int    `validate:"gte=0"`
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	query := matchListQuery{
		Status:   strings.TrimSpace(r.URL.Query().Get("status")),
		Location: strings.TrimSpace(r.URL.Query().Get("location")),
	}
	var err error
	if query.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if query.Offset, err = queryInt(r, "offset"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validator.StructCtx(ctx, query); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	items, err := h.browseService.ListMatches(ctx, usecase.MatchQuery{
		Status:   query.Status,
		Location: query.Location,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

type rankingQuery struct {
	MinMatches int `validate:"gte=0"`
	Limit      int `validate:"gte=0,lte=500"`
}

func (h *Handler) PlayerRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlayerRanking")
	defer span.End()

	var query rankingQuery
	var err error
	if query.MinMatches, err = queryInt(r, "min_matches"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if query.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validator.StructCtx(ctx, query); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	items, err := h.browseService.PlayerRanking(ctx, query.MinMatches, query.Limit)
	if err != nil {
		h.logger.WarnContext(ctx, "player ranking failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]playerDTO, 0, len(items))
	for _, item := range items {
		out = append(out, playerToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListScans")
	defer span.End()

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.browseService.RecentScans(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list scans failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]scanDTO, 0, len(items))
	for _, item := range items {
		out = append(out, scanToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ScraperStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ScraperStatus")
	defer span.End()

	state := h.scraper.State()
	out := scraperStatusDTO{
		State:            "idle",
		TotalRuns:        state.TotalRuns,
		Successes:        state.Successes,
		Failures:         state.Failures,
		ConsecutiveEmpty: state.ConsecutiveEmpty,
	}
	if state.Running {
		out.State = "running"
	}
	if state.LastRun != nil {
		summary := runSummaryToDTO(*state.LastRun)
		out.LastRun = &summary
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) TriggerScraperRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerScraperRun")
	defer span.End()

	result, err := h.scraper.TriggerRun(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "manual scraper run refused", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := runResultDTO{
		Status:     string(result.Status),
		Found:      result.Found,
		New:        result.New,
		Updated:    result.Updated,
		Unchanged:  result.Unchanged,
		DurationMS: result.Duration.Milliseconds(),
	}
	if result.Err != nil {
		out.ErrorDetail = result.Err.Error()
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

type locationDTO struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
	Status int    `json:"statusId"`
}

type tournamentDTO struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Token      string     `json:"token"`
	StatusID   int        `json:"statusId"`
	Active     bool       `json:"active"`
	LocationID int64      `json:"locationId"`
	Date       *time.Time `json:"date,omitempty"`
}

type teamDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

type matchParticipantDTO struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	TeamID   int64  `json:"teamId,omitempty"`
	TeamName string `json:"teamName,omitempty"`
}

type matchDTO struct {
	ID             int64               `json:"id"`
	TournamentID   int64               `json:"tournamentId"`
	TournamentName string              `json:"tournamentName,omitempty"`
	LocationName   string              `json:"locationName,omitempty"`
	Player1        matchParticipantDTO `json:"player1"`
	Player2        matchParticipantDTO `json:"player2"`
	Score1         *int                `json:"score1"`
	Score2         *int                `json:"score2"`
	StatusID       int                 `json:"statusId"`
	Status         string              `json:"status"`
	StreamURL      string              `json:"streamUrl,omitempty"`
	StartAt        *time.Time          `json:"startAt,omitempty"`
	SeenAt         *time.Time          `json:"seenAt,omitempty"`
}

type playerDTO struct {
	Nickname     string  `json:"nickname"`
	Matches      int     `json:"matches"`
	Wins         int     `json:"wins"`
	Draws        int     `json:"draws"`
	Losses       int     `json:"losses"`
	GoalsFor     int     `json:"goalsFor"`
	GoalsAgainst int     `json:"goalsAgainst"`
	WinRate      float64 `json:"winRate"`
}

type scanDTO struct {
	ID          int64     `json:"id"`
	StartedAt   time.Time `json:"startedAt"`
	Status      string    `json:"status"`
	Found       int       `json:"found"`
	New         int       `json:"new"`
	Updated     int       `json:"updated"`
	DurationMS  int64     `json:"durationMs"`
	ErrorDetail string    `json:"errorDetail,omitempty"`
}

type runSummaryDTO struct {
	StartedAt   time.Time `json:"startedAt"`
	Status      string    `json:"status"`
	Found       int       `json:"found"`
	New         int       `json:"new"`
	Updated     int       `json:"updated"`
	Unchanged   int       `json:"unchanged"`
	DurationMS  int64     `json:"durationMs"`
	ErrorDetail string    `json:"errorDetail,omitempty"`
}

type scraperStatusDTO struct {
	State            string         `json:"state"`
	TotalRuns        int            `json:"totalRuns"`
	Successes        int            `json:"successes"`
	Failures         int            `json:"failures"`
	ConsecutiveEmpty int            `json:"consecutiveEmpty"`
	LastRun          *runSummaryDTO `json:"lastRun,omitempty"`
}

type runResultDTO struct {
	Status      string `json:"status"`
	Found       int    `json:"found"`
	New         int    `json:"new"`
	Updated     int    `json:"updated"`
	Unchanged   int    `json:"unchanged"`
	DurationMS  int64  `json:"durationMs"`
	ErrorDetail string `json:"errorDetail,omitempty"`
}

func matchToDTO(item match.Match) matchDTO {
	return matchDTO{
		ID:             item.ID,
		TournamentID:   item.TournamentID,
		TournamentName: item.TournamentName,
		LocationName:   item.LocationName,
		Player1: matchParticipantDTO{
			ID:       item.Player1.ID,
			Nickname: item.Player1.Nickname,
			TeamID:   item.Player1.TeamID,
			TeamName: item.Player1.TeamName,
		},
		Player2: matchParticipantDTO{
			ID:       item.Player2.ID,
			Nickname: item.Player2.Nickname,
			TeamID:   item.Player2.TeamID,
			TeamName: item.Player2.TeamName,
		},
		Score1:    item.Score1,
		Score2:    item.Score2,
		StatusID:  item.StatusID,
		Status:    match.StatusText(item.StatusID),
		StreamURL: item.StreamURL,
		StartAt:   timeOrNil(item.StartAt),
		SeenAt:    timeOrNil(item.SeenAt),
	}
}

func playerToDTO(item player.Player) playerDTO {
	return playerDTO{
		Nickname:     item.Nickname,
		Matches:      item.Matches,
		Wins:         item.Wins,
		Draws:        item.Draws,
		Losses:       item.Losses,
		GoalsFor:     item.GoalsFor,
		GoalsAgainst: item.GoalsAgainst,
		WinRate:      item.WinRate(),
	}
}

func scanToDTO(item scanlog.Entry) scanDTO {
	return scanDTO{
		ID:          item.ID,
		StartedAt:   item.StartedAt,
		Status:      string(item.Status),
		Found:       item.Found,
		New:         item.New,
		Updated:     item.Updated,
		DurationMS:  item.DurationMS,
		ErrorDetail: item.ErrorDetail,
	}
}

func runSummaryToDTO(item usecase.RunSummary) runSummaryDTO {
	return runSummaryDTO{
		StartedAt:   item.StartedAt,
		Status:      string(item.Status),
		Found:       item.Found,
		New:         item.New,
		Updated:     item.Updated,
		Unchanged:   item.Unchanged,
		DurationMS:  item.DurationMS,
		ErrorDetail: item.ErrorDetail,
	}
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, key)
	}
	return value, nil
}

func timeOrNil(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	v := value.UTC()
	return &v
}
