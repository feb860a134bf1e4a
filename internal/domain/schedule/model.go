package schedule

import (
	"sort"
	"time"
)

// WeekUnknown sorts a game without week data after every real week.
const WeekUnknown = 999

// Game is a scheduled future matchup. It becomes a game.Game in the
// historical log once played; that promotion happens upstream of this
// service.
type Game struct {
	StartDate time.Time
	HomeID    string
	AwayID    string
	Venue     string
	Week      int
	Completed bool
}

func (g Game) Involves(teamID string) bool {
	return teamID != "" && (g.HomeID == teamID || g.AwayID == teamID)
}

// Opponent returns the other participant, or "" when teamID is not playing.
func (g Game) Opponent(teamID string) string {
	switch teamID {
	case g.HomeID:
		return g.AwayID
	case g.AwayID:
		return g.HomeID
	default:
		return ""
	}
}

// Upcoming filters to playable future games: not completed, both sides known,
// kickoff after now.
func Upcoming(games []Game, now time.Time) []Game {
	out := make([]Game, 0, len(games))
	for _, g := range games {
		if g.Completed || g.HomeID == "" || g.AwayID == "" {
			continue
		}
		if !g.StartDate.After(now) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// SortByKickoff returns a copy ordered ascending by start date (stable).
func SortByKickoff(games []Game) []Game {
	out := append([]Game(nil), games...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}
