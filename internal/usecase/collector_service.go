package usecase

import (
	"context"
	"fmt"

	"esbtracker/internal/domain/location"
	"esbtracker/internal/domain/match"
	"esbtracker/internal/domain/team"
	"esbtracker/internal/domain/tournament"
	"esbtracker/internal/platform/logging"
)

// maxTournamentPages caps pagination so a bogus totalPages value from
// upstream cannot spin the collector forever.
const maxTournamentPages = 200

// MatchProvider is the upstream API surface the collector consumes.
type MatchProvider interface {
	Locations(ctx context.Context) ([]location.Location, error)
	TournamentsPage(ctx context.Context, page int) ([]tournament.Tournament, int, error)
	TeamsPage(ctx context.Context, page int) ([]team.Team, int, error)
	TournamentMatches(ctx context.Context, tournamentID int64) ([]match.Match, error)
}

// TournamentError records a per-tournament fetch failure that did not
// abort the rest of the collection.
type TournamentError struct {
	TournamentID int64
	Name         string
	Err          error
}

func (e TournamentError) Error() string {
	return fmt.Sprintf("tournament %d (%s): %v", e.TournamentID, e.Name, e.Err)
}

func (e TournamentError) Unwrap() error {
	return e.Err
}

// Collection is one scan's worth of upstream state.
type Collection struct {
	Locations   []location.Location
	Tournaments []tournament.Tournament
	Matches     []match.Match
	Errors      []TournamentError
}

type CollectorService struct {
	provider MatchProvider
	logger   *logging.Logger
}

func NewCollectorService(provider MatchProvider, logger *logging.Logger) *CollectorService {
	if logger == nil {
		logger = logging.Default()
	}
	return &CollectorService{
		provider: provider,
		logger:   logger,
	}
}

// CollectActiveMatches walks every active tournament and gathers its
// matches. A failing tournament is recorded in Errors and skipped; a
// failure before any tournament is known aborts the collection.
func (s *CollectorService) CollectActiveMatches(ctx context.Context) (Collection, error) {
	ctx, span := startUsecaseSpan(ctx, "collector.CollectActiveMatches")
	defer span.End()

	locations, err := s.provider.Locations(ctx)
	if err != nil {
		return Collection{}, fmt.Errorf("collect locations: %w", err)
	}
	locationNameByID := make(map[int64]string, len(locations))
	for _, item := range locations {
		locationNameByID[item.ID] = item.DisplayName()
	}

	tournaments, err := s.collectTournaments(ctx)
	if err != nil {
		return Collection{}, err
	}

	active := make([]tournament.Tournament, 0, len(tournaments))
	for _, item := range tournaments {
		if item.IsActive() {
			active = append(active, item)
			continue
		}
		if !knownStatus(item.StatusID) {
			s.logger.WarnContext(ctx, "tournament has unknown status, treating as inactive",
				"tournament_id", item.ID,
				"status_id", item.StatusID,
			)
		}
	}

	collection := Collection{
		Locations:   locations,
		Tournaments: active,
	}

	byID := make(map[int64]int, 64)
	for _, item := range active {
		matches, err := s.provider.TournamentMatches(ctx, item.ID)
		if err != nil {
			if ctx.Err() != nil {
				return Collection{}, ctx.Err()
			}
			s.logger.WarnContext(ctx, "tournament matches fetch failed, skipping",
				"tournament_id", item.ID,
				"tournament", item.DisplayName(),
				"error", err,
			)
			collection.Errors = append(collection.Errors, TournamentError{
				TournamentID: item.ID,
				Name:         item.DisplayName(),
				Err:          err,
			})
			continue
		}

		for _, row := range matches {
			row.TournamentName = item.DisplayName()
			row.LocationName = locationNameByID[item.LocationID]

			// Same match ID under two tournaments: last fetched wins.
			if idx, seen := byID[row.ID]; seen {
				collection.Matches[idx] = row
				continue
			}
			byID[row.ID] = len(collection.Matches)
			collection.Matches = append(collection.Matches, row)
		}
	}

	return collection, nil
}

// CollectTeams walks the paginated team list.
func (s *CollectorService) CollectTeams(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "collector.CollectTeams")
	defer span.End()

	out := make([]team.Team, 0, 64)
	seen := make(map[int64]struct{}, 64)
	for page := 1; page <= maxTournamentPages; page++ {
		items, totalPages, err := s.provider.TeamsPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("collect teams page=%d: %w", page, err)
		}
		for _, item := range items {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, item)
		}
		if page >= totalPages || len(items) == 0 {
			break
		}
	}
	return out, nil
}

func (s *CollectorService) collectTournaments(ctx context.Context) ([]tournament.Tournament, error) {
	out := make([]tournament.Tournament, 0, 64)
	seen := make(map[int64]struct{}, 64)
	for page := 1; page <= maxTournamentPages; page++ {
		items, totalPages, err := s.provider.TournamentsPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("collect tournaments page=%d: %w", page, err)
		}
		for _, item := range items {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, item)
		}
		if page >= totalPages || len(items) == 0 {
			break
		}
	}
	return out, nil
}

func knownStatus(statusID int) bool {
	switch statusID {
	case tournament.StatusPlanned, tournament.StatusStarted, tournament.StatusFinished, tournament.StatusCanceled:
		return true
	default:
		return false
	}
}
