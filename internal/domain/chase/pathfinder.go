package chase

import (
	"sort"

	"github.com/cfbbelt/beltbot/internal/domain/schedule"
)

// Path is one team's cheapest route to the belt over the remaining schedule.
type Path struct {
	TeamID       string
	GamesAway    int
	EarliestWeek int
}

type state struct {
	holder string
	week   int
	depth  int
}

// Reachable enumerates every team that can still take the belt given the
// remaining schedule, breadth-first over (holder, week) states. Each popped
// state advances the holder to its next scheduled game past the week cursor
// and branches on both outcomes: the opponent winning (belt moves) and the
// holder winning (belt stays, cursor advances). Opponents are upserted with
// the minimum games-away and minimum earliest-week seen across all branches;
// the upsert happens before the visited-set check so a cheaper path found
// later can never be locked out by dedup. A visited set on (holder, week)
// bounds the walk to the number of distinct (team, week) pairs.
func Reachable(championID string, games []schedule.Game) []Path {
	if championID == "" || len(games) == 0 {
		return nil
	}

	byTeam := make(map[string][]schedule.Game)
	for _, g := range games {
		if g.Completed || g.HomeID == "" || g.AwayID == "" {
			continue
		}
		byTeam[g.HomeID] = append(byTeam[g.HomeID], g)
		byTeam[g.AwayID] = append(byTeam[g.AwayID], g)
	}
	for id := range byTeam {
		list := byTeam[id]
		sort.SliceStable(list, func(i, j int) bool { return weekOf(list[i]) < weekOf(list[j]) })
		byTeam[id] = list
	}

	paths := make(map[string]*Path)
	visited := make(map[state]bool)

	queue := []state{{holder: championID, week: 0, depth: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		key := state{holder: cur.holder, week: cur.week}
		if visited[key] {
			continue
		}
		visited[key] = true

		next, ok := nextGame(byTeam[cur.holder], cur.week)
		if !ok {
			// Holder has no more games; the belt stays put on this branch.
			continue
		}

		gameWeek := weekOf(next)
		opponent := next.Opponent(cur.holder)

		if p, ok := paths[opponent]; ok {
			if cur.depth+1 < p.GamesAway {
				p.GamesAway = cur.depth + 1
			}
			if gameWeek < p.EarliestWeek {
				p.EarliestWeek = gameWeek
			}
		} else {
			paths[opponent] = &Path{
				TeamID:       opponent,
				GamesAway:    cur.depth + 1,
				EarliestWeek: gameWeek,
			}
		}

		queue = append(queue,
			state{holder: opponent, week: gameWeek, depth: cur.depth + 1},
			state{holder: cur.holder, week: gameWeek, depth: cur.depth},
		)
	}

	out := make([]Path, 0, len(paths))
	for _, p := range paths {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GamesAway != out[j].GamesAway {
			return out[i].GamesAway < out[j].GamesAway
		}
		if out[i].EarliestWeek != out[j].EarliestWeek {
			return out[i].EarliestWeek < out[j].EarliestWeek
		}
		return out[i].TeamID < out[j].TeamID
	})
	return out
}

func nextGame(games []schedule.Game, afterWeek int) (schedule.Game, bool) {
	for _, g := range games {
		if weekOf(g) > afterWeek {
			return g, true
		}
	}
	return schedule.Game{}, false
}

func weekOf(g schedule.Game) int {
	if g.Week <= 0 {
		return schedule.WeekUnknown
	}
	return g.Week
}
