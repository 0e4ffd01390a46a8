package esportsbattle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"esbtracker/internal/domain/location"
	"esbtracker/internal/domain/match"
	"esbtracker/internal/domain/team"
	"esbtracker/internal/domain/tournament"
	"esbtracker/internal/platform/cache"
	"esbtracker/internal/platform/logging"
	"esbtracker/internal/platform/resilience"
	"esbtracker/internal/usecase"
)

const (
	defaultBaseURL      = "https://football.esportsbattle.com/api"
	defaultTimeout      = 20 * time.Second
	defaultMaxRetries   = 3
	defaultCacheTTL     = 5 * time.Minute
	backoffBase         = time.Second
	backoffCap          = 30 * time.Second
	throttleBackoffMin  = 10 * time.Second
	maxResponseBytes    = 6 << 20
	locationsCacheKey   = "locations"
)

var errUpstreamTransient = crerr.New("esportsbattle transient failure")

// staticHeaders mimic a browser session; the provider answers plain
// API clients with 403.
var staticHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.9",
	"Referer":         "https://football.esportsbattle.com/",
	"Origin":          "https://football.esportsbattle.com",
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	LocationTTL    time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	retryBackoff   time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	locations      *cache.Store
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	locationTTL := cfg.LocationTTL
	if locationTTL <= 0 {
		locationTTL = defaultCacheTTL
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxRetries,
		retryBackoff:   backoffBase,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		locations:      cache.NewStore(locationTTL),
	}
}

// Locations returns the venue list, cached for the configured TTL.
// Concurrent callers on a cold cache share one request.
func (c *Client) Locations(ctx context.Context) ([]location.Location, error) {
	out, err := c.locations.GetOrLoad(ctx, locationsCacheKey, func(ctx context.Context) (any, error) {
		return c.fetchLocations(ctx)
	})
	if err != nil {
		return nil, err
	}

	items, ok := out.([]location.Location)
	if !ok {
		return nil, fmt.Errorf("unexpected cached payload type %T", out)
	}
	return items, nil
}

func (c *Client) fetchLocations(ctx context.Context) ([]location.Location, error) {
	var items []locationItem
	if err := c.doJSON(ctx, "/locations", &items); err != nil {
		return nil, fmt.Errorf("fetch locations: %w", err)
	}

	out := make([]location.Location, 0, len(items))
	for _, item := range items {
		if item.ID <= 0 {
			return nil, fmt.Errorf("%w: location without id", usecase.ErrSchemaMismatch)
		}
		out = append(out, location.Location{
			ID:       item.ID,
			Code:     strings.TrimSpace(item.Token),
			Name:     displayToken(item.TokenInternational, item.Token),
			Color:    strings.TrimSpace(item.Color),
			StatusID: item.StatusID,
		})
	}
	return out, nil
}

// TournamentsPage fetches one page of tournaments. Pages are 1-based;
// the second return value is the total page count reported upstream.
func (c *Client) TournamentsPage(ctx context.Context, page int) ([]tournament.Tournament, int, error) {
	if page < 1 {
		page = 1
	}

	var envelope tournamentsEnvelope
	if err := c.doJSON(ctx, "/tournaments?page="+strconv.Itoa(page), &envelope); err != nil {
		return nil, 0, fmt.Errorf("fetch tournaments page=%d: %w", page, err)
	}

	out := make([]tournament.Tournament, 0, len(envelope.Tournaments))
	for _, item := range envelope.Tournaments {
		if item.ID <= 0 {
			return nil, 0, fmt.Errorf("%w: tournament without id", usecase.ErrSchemaMismatch)
		}
		out = append(out, tournament.Tournament{
			ID:         item.ID,
			Name:       displayToken(item.TokenInternational, item.Token),
			Token:      strings.TrimSpace(item.Token),
			StatusID:   item.StatusID,
			LocationID: item.Location.ID,
			Date:       parseUpstreamTime(item.Date),
		})
	}
	return out, envelope.TotalPages, nil
}

// TeamsPage fetches one page of teams. Pages are 1-based.
func (c *Client) TeamsPage(ctx context.Context, page int) ([]team.Team, int, error) {
	if page < 1 {
		page = 1
	}

	var envelope teamsEnvelope
	if err := c.doJSON(ctx, "/teams?page="+strconv.Itoa(page), &envelope); err != nil {
		return nil, 0, fmt.Errorf("fetch teams page=%d: %w", page, err)
	}

	out := make([]team.Team, 0, len(envelope.Teams))
	for _, item := range envelope.Teams {
		if item.ID <= 0 {
			return nil, 0, fmt.Errorf("%w: team without id", usecase.ErrSchemaMismatch)
		}
		out = append(out, team.Team{
			ID:    item.ID,
			Name:  displayToken(item.TokenInternational, item.Token),
			Token: strings.TrimSpace(item.Token),
		})
	}
	return out, envelope.TotalPages, nil
}

// TournamentMatches fetches every match of one tournament.
func (c *Client) TournamentMatches(ctx context.Context, tournamentID int64) ([]match.Match, error) {
	if tournamentID <= 0 {
		return nil, fmt.Errorf("tournament id must be greater than zero")
	}

	var items []matchItem
	path := fmt.Sprintf("/tournaments/%d/matches", tournamentID)
	if err := c.doJSON(ctx, path, &items); err != nil {
		return nil, fmt.Errorf("fetch matches tournament_id=%d: %w", tournamentID, err)
	}

	out := make([]match.Match, 0, len(items))
	for _, item := range items {
		if item.ID <= 0 {
			return nil, fmt.Errorf("%w: match without id", usecase.ErrSchemaMismatch)
		}
		row := match.Match{
			ID:           item.ID,
			TournamentID: item.TournamentID,
			Player1:      mapParticipant(item.Participant1),
			Player2:      mapParticipant(item.Participant2),
			Score1:       item.Participant1.Score,
			Score2:       item.Participant2.Score,
			StatusID:     item.StatusID,
			StreamURL:    strings.TrimSpace(item.StreamURL),
			StartAt:      parseUpstreamTime(item.Date),
		}
		if row.TournamentID == 0 {
			row.TournamentID = tournamentID
		}
		out = append(out, row)
	}
	return out, nil
}

func mapParticipant(item participantItem) match.Participant {
	return match.Participant{
		ID:       item.ID,
		Nickname: item.Nickname,
		TeamID:   item.Team.ID,
		TeamName: displayToken(item.Team.TokenInternational, item.Team.Token),
	}
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "esportsbattle circuit breaker rejected request", "state", c.breaker.State())
			return usecase.ErrUpstreamUnavailable
		}
	}

	raw, err := c.executeRequest(ctx, c.baseURL+path)
	if c.circuitEnabled {
		if err != nil && isCircuitFailure(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode provider payload: %v", usecase.ErrSchemaMismatch, err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		for key, value := range staticHeaders {
			req.Header.Set(key, value)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errUpstreamTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errUpstreamTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusForbidden:
				c.logger.WarnContext(ctx, "esportsbattle request forbidden, raising backoff", "url", fullURL)
				lastErr = fmt.Errorf("%w: provider status=%d", usecase.ErrForbidden, resp.StatusCode)
				if backoff < throttleBackoffMin {
					backoff = throttleBackoffMin
				}
			case resp.StatusCode == http.StatusTooManyRequests:
				c.logger.WarnContext(ctx, "esportsbattle request rate limited, raising backoff", "url", fullURL)
				lastErr = fmt.Errorf("%w: provider status=%d", usecase.ErrRateLimited, resp.StatusCode)
				if backoff < throttleBackoffMin {
					backoff = throttleBackoffMin
				}
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errUpstreamTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries-1 {
			break
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
		if backoff > backoffCap {
			backoff = backoffCap
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "esportsbattle request failed", "url", fullURL, "error", lastErr)
	if crerr.Is(lastErr, errUpstreamTransient) {
		return nil, fmt.Errorf("%w: %v", usecase.ErrUpstreamUnavailable, lastErr)
	}
	return nil, lastErr
}

func isRetryableStatus(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusRequestTimeout
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errUpstreamTransient) ||
		crerr.Is(err, usecase.ErrUpstreamUnavailable) ||
		crerr.Is(err, usecase.ErrRateLimited) ||
		crerr.Is(err, usecase.ErrForbidden)
}

func abbreviateBody(raw []byte) string {
	const maxLen = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > maxLen {
		return body[:maxLen] + "..."
	}
	return body
}
