package usecase

import (
	"context"
	"fmt"
	"strings"

	"esbtracker/internal/domain/location"
	"esbtracker/internal/domain/match"
	"esbtracker/internal/domain/player"
	"esbtracker/internal/domain/scanlog"
	"esbtracker/internal/domain/team"
	"esbtracker/internal/domain/tournament"
)

const (
	maxListLimit     = 500
	defaultScanLimit = 50
)

// BrowseService serves the read-only API over collected state.
type BrowseService struct {
	locationRepo   location.Repository
	tournamentRepo tournament.Repository
	teamRepo       team.Repository
	matchRepo      match.Repository
	playerRepo     player.Repository
	scanRepo       scanlog.Repository
}

func NewBrowseService(
	locationRepo location.Repository,
	tournamentRepo tournament.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	playerRepo player.Repository,
	scanRepo scanlog.Repository,
) *BrowseService {
	return &BrowseService{
		locationRepo:   locationRepo,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		playerRepo:     playerRepo,
		scanRepo:       scanRepo,
	}
}

func (s *BrowseService) ListLocations(ctx context.Context) ([]location.Location, error) {
	ctx, span := startUsecaseSpan(ctx, "browse.ListLocations")
	defer span.End()

	items, err := s.locationRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return items, nil
}

func (s *BrowseService) ListTournaments(ctx context.Context) ([]tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "browse.ListTournaments")
	defer span.End()

	items, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	return items, nil
}

func (s *BrowseService) ListTeams(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "browse.ListTeams")
	defer span.End()

	items, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return items, nil
}

// MatchQuery narrows ListMatches. Status is the textual form used on
// the wire ("live", "finished", ...); empty means all statuses.
type MatchQuery struct {
	Status   string
	Location string
	Limit    int
	Offset   int
}

func (s *BrowseService) ListMatches(ctx context.Context, query MatchQuery) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "browse.ListMatches")
	defer span.End()

	filter := match.ListFilter{
		LocationName: strings.TrimSpace(query.Location),
		Limit:        query.Limit,
		Offset:       query.Offset,
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		statusID, ok := match.StatusID(status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown match status %q", ErrInvalidInput, status)
		}
		filter.StatusID = statusID
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidInput)
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	items, err := s.matchRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return items, nil
}

func (s *BrowseService) PlayerRanking(ctx context.Context, minMatches, limit int) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "browse.PlayerRanking")
	defer span.End()

	if minMatches < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: min_matches and limit must not be negative", ErrInvalidInput)
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	items, err := s.playerRepo.Ranking(ctx, minMatches, limit)
	if err != nil {
		return nil, fmt.Errorf("player ranking: %w", err)
	}
	return items, nil
}

func (s *BrowseService) RecentScans(ctx context.Context, limit int) ([]scanlog.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "browse.RecentScans")
	defer span.End()

	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}
	if limit == 0 {
		limit = defaultScanLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	items, err := s.scanRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent scans: %w", err)
	}
	return items, nil
}
