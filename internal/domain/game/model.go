package game

import (
	"sort"
	"time"
)

// Game is one completed game from the historical log. BeltChange marks the
// rows where the belt changed hands; the flag comes straight from the feed
// and is never re-derived here.
type Game struct {
	Date        time.Time
	WinnerID    string
	LoserID     string
	WinnerScore *int
	LoserScore  *int
	BeltChange  bool
}

// SortByDate returns a copy ordered ascending by date. The sort is stable so
// same-day games keep feed order, which the reign replay depends on.
func SortByDate(games []Game) []Game {
	out := append([]Game(nil), games...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
