package belt

import (
	"sort"
	"time"
)

// Reign is one continuous stretch of belt ownership, derived from the game
// log by Replay. End is nil while the reign is still open.
type Reign struct {
	ChampionID string
	Start      time.Time
	End        *time.Time
	Defenses   int

	// WonFromID is the loser of the belt-change game that opened this reign;
	// LostToID the winner of the one that closed it ("" while open).
	WonFromID string
	LostToID  string
}

func (r Reign) Current() bool {
	return r.End == nil
}

// Days measures the reign length in whole days, open reigns against now.
func (r Reign) Days(now time.Time) int {
	end := now
	if r.End != nil {
		end = *r.End
	}
	d := int(end.Sub(r.Start).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// LongestFirst returns a copy sorted descending by length in days, open
// reigns measured against now. The sort is stable: equal-length reigns keep
// chronological order.
func LongestFirst(reigns []Reign, now time.Time) []Reign {
	out := append([]Reign(nil), reigns...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Days(now) > out[j].Days(now)
	})
	return out
}

// Inconsistency flags a game where the sitting champion lost without a
// belt-change marker. The log is the single source of truth for transitions,
// so the replay never fabricates a reign end from such a row; it only stops
// trusting the defense count from that point on.
type Inconsistency struct {
	Date       time.Time
	ChampionID string
	WinnerID   string
}
