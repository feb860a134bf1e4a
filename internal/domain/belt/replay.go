package belt

import (
	"time"

	"github.com/cfbbelt/beltbot/internal/domain/game"
)

// History is the full reign reconstruction for one replay of the game log.
type History struct {
	Reigns          []Reign
	Inconsistencies []Inconsistency
}

// Current returns the open reign, if any.
func (h History) Current() (Reign, bool) {
	if len(h.Reigns) == 0 {
		return Reign{}, false
	}
	last := h.Reigns[len(h.Reigns)-1]
	if !last.Current() {
		return Reign{}, false
	}
	return last, true
}

// ByChampion filters reigns to one team, preserving chronological order.
func (h History) ByChampion(teamID string) []Reign {
	out := make([]Reign, 0, 2)
	for _, r := range h.Reigns {
		if r.ChampionID == teamID {
			out = append(out, r)
		}
	}
	return out
}

// Replay reconstructs the reign history from the game log. Games are replayed
// ascending by date; a belt-change row closes the open reign and opens a new
// one, a plain win by the sitting champion counts as a defense. A loss by the
// sitting champion without the belt-change flag means the log is malformed:
// defense counting for the open reign freezes there and the row is surfaced
// as an Inconsistency, but reign boundaries stay driven by the flag alone.
func Replay(games []game.Game, now time.Time) History {
	ordered := game.SortByDate(games)

	var h History
	open := -1 // index into h.Reigns
	frozen := false

	for _, g := range ordered {
		if g.BeltChange {
			if open >= 0 {
				end := g.Date
				h.Reigns[open].End = &end
				h.Reigns[open].LostToID = g.WinnerID
			}
			h.Reigns = append(h.Reigns, Reign{
				ChampionID: g.WinnerID,
				Start:      g.Date,
				WonFromID:  g.LoserID,
			})
			open = len(h.Reigns) - 1
			frozen = false
			continue
		}

		if open < 0 {
			continue
		}

		champion := h.Reigns[open].ChampionID
		switch {
		case g.WinnerID == champion:
			if !frozen {
				h.Reigns[open].Defenses++
			}
		case g.LoserID == champion:
			h.Inconsistencies = append(h.Inconsistencies, Inconsistency{
				Date:       g.Date,
				ChampionID: champion,
				WinnerID:   g.WinnerID,
			})
			frozen = true
		}
	}

	return h
}
