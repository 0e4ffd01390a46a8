package player

import "fmt"

// Player accumulates per-nickname results across finished matches.
// Nicknames are case-sensitive: "Linox" and "linox" are two players.
type Player struct {
	Nickname     string
	Matches      int
	Wins         int
	Draws        int
	Losses       int
	GoalsFor     int
	GoalsAgainst int
}

func (p Player) Validate() error {
	if p.Nickname == "" {
		return fmt.Errorf("player nickname is required")
	}

	return nil
}

// WinRate is wins over matches as a percentage, 0 for an empty record.
func (p Player) WinRate() float64 {
	if p.Matches == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.Matches) * 100
}

// Record applies one finished match outcome from this player's side.
func (p *Player) Record(goalsFor, goalsAgainst int) {
	p.Matches++
	p.GoalsFor += goalsFor
	p.GoalsAgainst += goalsAgainst
	switch {
	case goalsFor > goalsAgainst:
		p.Wins++
	case goalsFor < goalsAgainst:
		p.Losses++
	default:
		p.Draws++
	}
}
