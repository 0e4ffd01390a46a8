package esportsbattle

import (
	"strings"
	"time"
)

// Wire payloads for the ESportsBattle football API. Field names follow
// the upstream JSON exactly.

type locationItem struct {
	ID                 int64  `json:"id"`
	StatusID           int    `json:"status_id"`
	Token              string `json:"token"`
	TokenInternational string `json:"token_international"`
	Color              string `json:"color"`
}

type tournamentLocation struct {
	ID                 int64  `json:"id"`
	Token              string `json:"token"`
	TokenInternational string `json:"token_international"`
}

type tournamentItem struct {
	ID                 int64              `json:"id"`
	StatusID           int                `json:"status_id"`
	Token              string             `json:"token"`
	TokenInternational string             `json:"token_international"`
	Date               string             `json:"date"`
	Location           tournamentLocation `json:"location"`
}

type tournamentsEnvelope struct {
	TotalPages  int              `json:"totalPages"`
	Tournaments []tournamentItem `json:"tournaments"`
}

type teamItem struct {
	ID                 int64  `json:"id"`
	Token              string `json:"token"`
	TokenInternational string `json:"token_international"`
}

type teamsEnvelope struct {
	TotalPages int        `json:"totalPages"`
	Teams      []teamItem `json:"teams"`
}

type participantTeam struct {
	ID                 int64  `json:"id"`
	Token              string `json:"token"`
	TokenInternational string `json:"token_international"`
}

type participantItem struct {
	ID       int64           `json:"id"`
	Nickname string          `json:"nickname"`
	Score    *int            `json:"score"`
	Team     participantTeam `json:"team"`
}

type matchItem struct {
	ID           int64           `json:"id"`
	StatusID     int             `json:"status_id"`
	Date         string          `json:"date"`
	TournamentID int64           `json:"tournament_id"`
	Participant1 participantItem `json:"participant1"`
	Participant2 participantItem `json:"participant2"`
	StreamURL    string          `json:"streamUrl"`
}

func displayToken(international, local string) string {
	if v := strings.TrimSpace(international); v != "" {
		return v
	}
	return strings.TrimSpace(local)
}

// parseUpstreamTime accepts the handful of timestamp layouts the API
// has been seen emitting. A zero time means the value was absent or
// unparseable.
func parseUpstreamTime(raw string) time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
