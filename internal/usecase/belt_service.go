package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cfbbelt/beltbot/internal/domain/belt"
	"github.com/cfbbelt/beltbot/internal/domain/game"
	"github.com/cfbbelt/beltbot/internal/domain/schedule"
	"github.com/cfbbelt/beltbot/internal/domain/school"
	basecache "github.com/cfbbelt/beltbot/internal/platform/cache"
	"github.com/cfbbelt/beltbot/internal/platform/logging"
)

// BeltService answers every reign question by replaying the game log.
type BeltService struct {
	gameRepo     game.Repository
	scheduleRepo schedule.Repository
	schoolRepo   school.Repository
	aliases      map[string]string
	dirCache     *basecache.Store
	logger       *logging.Logger
	now          func() time.Time
}

// ChampionStatus is the answer to "who holds the belt right now".
type ChampionStatus struct {
	ChampionID   string
	ChampionName string
	ReignStart   time.Time
	Defenses     int
	DaysHeld     int
}

type ReignSummary struct {
	ChampionID   string
	ChampionName string
	Start        time.Time
	End          *time.Time
	Days         int
	Defenses     int
	Current      bool
}

type TeamBeltHistory struct {
	School           school.School
	TotalReigns      int
	TotalDaysHeld    int
	TotalDefenses    int
	LongestReignDays int
	LastHeld         *time.Time
	LastWonFrom      string
	LastLostTo       string
}

type OverallStats struct {
	TotalBeltGames int
	TotalChanges   int
	TotalDefenses  int
	FirstChange    time.Time
	DaysSinceStart int
}

type OnThisDayGame struct {
	Date        time.Time
	Year        int
	WinnerID    string
	WinnerName  string
	LoserID     string
	LoserName   string
	WinnerScore *int
	LoserScore  *int
}

// NextGame is the champion's earliest remaining scheduled game.
type NextGame struct {
	Date         time.Time
	Week         int
	Venue        string
	OpponentID   string
	OpponentName string
	HomeID       string
	AwayID       string
	ChampionHome bool
}

func NewBeltService(
	gameRepo game.Repository,
	scheduleRepo schedule.Repository,
	schoolRepo school.Repository,
	logger *logging.Logger,
) *BeltService {
	if logger == nil {
		logger = logging.Default()
	}

	return &BeltService{
		gameRepo:     gameRepo,
		scheduleRepo: scheduleRepo,
		schoolRepo:   schoolRepo,
		aliases:      school.DefaultAliases(),
		dirCache:     basecache.NewStore(15 * time.Minute),
		logger:       logger,
		now:          time.Now,
	}
}

// Directory returns the school directory built from the latest feed snapshot.
func (s *BeltService) Directory(ctx context.Context) (*school.Directory, error) {
	v, err := s.dirCache.GetOrLoad(ctx, "school:directory", func(ctx context.Context) (any, error) {
		schools, err := s.schoolRepo.ListSchools(ctx, false)
		if err != nil {
			return nil, err
		}
		return school.NewDirectory(schools, s.aliases), nil
	})
	if err != nil {
		return nil, fmt.Errorf("load school directory: %w", err)
	}

	dir, _ := v.(*school.Directory)
	return dir, nil
}

func (s *BeltService) CurrentChampion(ctx context.Context) (ChampionStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BeltService.CurrentChampion")
	defer span.End()

	h, err := s.history(ctx)
	if err != nil {
		return ChampionStatus{}, err
	}

	current, ok := h.Current()
	if !ok {
		return ChampionStatus{}, ErrNoChampionData
	}

	dir, _ := s.Directory(ctx)

	return ChampionStatus{
		ChampionID:   current.ChampionID,
		ChampionName: dir.NameOf(current.ChampionID),
		ReignStart:   current.Start,
		Defenses:     current.Defenses,
		DaysHeld:     current.Days(s.now()),
	}, nil
}

func (s *BeltService) LongestReigns(ctx context.Context, limit int) ([]ReignSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BeltService.LongestReigns")
	defer span.End()

	if limit <= 0 {
		limit = 10
	}

	h, err := s.history(ctx)
	if err != nil {
		return nil, err
	}
	if len(h.Reigns) == 0 {
		return nil, ErrNoChampionData
	}

	dir, _ := s.Directory(ctx)
	now := s.now()

	ranked := belt.LongestFirst(h.Reigns, now)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]ReignSummary, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, ReignSummary{
			ChampionID:   r.ChampionID,
			ChampionName: dir.NameOf(r.ChampionID),
			Start:        r.Start,
			End:          r.End,
			Days:         r.Days(now),
			Defenses:     r.Defenses,
			Current:      r.Current(),
		})
	}
	return out, nil
}

// TeamHistory resolves free text to a school and accumulates its reigns.
func (s *BeltService) TeamHistory(ctx context.Context, teamText string) (TeamBeltHistory, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BeltService.TeamHistory")
	defer span.End()

	dir, err := s.Directory(ctx)
	if err != nil {
		return TeamBeltHistory{}, err
	}

	found, ok := dir.Find(teamText)
	if !ok {
		return TeamBeltHistory{}, fmt.Errorf("%w: %q", ErrTeamNotFound, teamText)
	}

	h, err := s.history(ctx)
	if err != nil {
		return TeamBeltHistory{}, err
	}

	out := TeamBeltHistory{School: found}
	now := s.now()

	reigns := h.ByChampion(found.ID)
	out.TotalReigns = len(reigns)
	for _, r := range reigns {
		days := r.Days(now)
		out.TotalDaysHeld += days
		out.TotalDefenses += r.Defenses
		if days > out.LongestReignDays {
			out.LongestReignDays = days
		}

		held := now
		if r.End != nil {
			held = *r.End
		}
		out.LastHeld = &held
		out.LastWonFrom = dir.NameOf(r.WonFromID)
		if r.End != nil {
			out.LastLostTo = dir.NameOf(r.LostToID)
		}
	}
	if out.TotalReigns == 0 {
		out.LastHeld = nil
	}

	return out, nil
}

func (s *BeltService) OverallStats(ctx context.Context) (OverallStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BeltService.OverallStats")
	defer span.End()

	h, err := s.history(ctx)
	if err != nil {
		return OverallStats{}, err
	}
	if len(h.Reigns) == 0 {
		return OverallStats{}, ErrNoChampionData
	}

	out := OverallStats{TotalChanges: len(h.Reigns), FirstChange: h.Reigns[0].Start}
	for _, r := range h.Reigns {
		out.TotalDefenses += r.Defenses
	}
	out.TotalBeltGames = out.TotalChanges + out.TotalDefenses
	out.DaysSinceStart = int(s.now().Sub(out.FirstChange).Hours() / 24)

	return out, nil
}

// GamesOnDate lists belt-change games on a calendar month/day across all
// years, most recent first.
func (s *BeltService) GamesOnDate(ctx context.Context, month time.Month, day int) ([]OnThisDayGame, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BeltService.GamesOnDate")
	defer span.End()

	games, err := s.gameRepo.ListGames(ctx, false)
	if err != nil {
		return nil, err
	}

	dir, _ := s.Directory(ctx)

	out := make([]OnThisDayGame, 0, 4)
	for _, g := range games {
		if !g.BeltChange || g.Date.Month() != month || g.Date.Day() != day {
			continue
		}
		out = append(out, OnThisDayGame{
			Date:        g.Date,
			Year:        g.Date.Year(),
			WinnerID:    g.WinnerID,
			WinnerName:  dir.NameOf(g.WinnerID),
			LoserID:     g.LoserID,
			LoserName:   dir.NameOf(g.LoserID),
			WinnerScore: g.WinnerScore,
			LoserScore:  g.LoserScore,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

// NextBeltGame returns the champion's earliest upcoming game, reporting
// found=false when the schedule has nothing for them.
func (s *BeltService) NextBeltGame(ctx context.Context) (NextGame, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BeltService.NextBeltGame")
	defer span.End()

	status, err := s.CurrentChampion(ctx)
	if err != nil {
		return NextGame{}, false, err
	}

	games, err := s.scheduleRepo.ListSchedule(ctx, false)
	if err != nil {
		return NextGame{}, false, fmt.Errorf("%w: %v", ErrScheduleUnavailable, err)
	}

	upcoming := schedule.SortByKickoff(schedule.Upcoming(games, s.now()))
	for _, g := range upcoming {
		if !g.Involves(status.ChampionID) {
			continue
		}

		dir, _ := s.Directory(ctx)
		opponentID := g.Opponent(status.ChampionID)
		venue := g.Venue
		if venue == "" {
			venue = "TBD"
		}

		return NextGame{
			Date:         g.StartDate,
			Week:         g.Week,
			Venue:        venue,
			OpponentID:   opponentID,
			OpponentName: dir.NameOf(opponentID),
			HomeID:       g.HomeID,
			AwayID:       g.AwayID,
			ChampionHome: g.HomeID == status.ChampionID,
		}, true, nil
	}

	return NextGame{}, false, nil
}

// LatestGame returns the most recent entry in the game log.
func (s *BeltService) LatestGame(ctx context.Context) (game.Game, bool, error) {
	games, err := s.gameRepo.ListGames(ctx, false)
	if err != nil {
		return game.Game{}, false, err
	}
	if len(games) == 0 {
		return game.Game{}, false, nil
	}

	sorted := game.SortByDate(games)
	return sorted[len(sorted)-1], true, nil
}

func (s *BeltService) history(ctx context.Context) (belt.History, error) {
	games, err := s.gameRepo.ListGames(ctx, false)
	if err != nil {
		return belt.History{}, err
	}

	h := belt.Replay(games, s.now())
	for _, warn := range h.Inconsistencies {
		s.logger.WarnContext(ctx, "game log inconsistency: champion loss without belt-change flag",
			"date", warn.Date.Format("2006-01-02"),
			"champion_id", warn.ChampionID,
			"winner_id", warn.WinnerID,
		)
	}
	return h, nil
}
