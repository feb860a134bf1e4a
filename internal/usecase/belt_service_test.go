package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cfbbelt/beltbot/internal/domain/game"
	"github.com/cfbbelt/beltbot/internal/domain/schedule"
	"github.com/cfbbelt/beltbot/internal/domain/school"
	"github.com/cfbbelt/beltbot/internal/infrastructure/repository/memory"
	"github.com/cfbbelt/beltbot/internal/platform/logging"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

var testSchools = []school.School{
	{ID: "rutgers", Name: "Rutgers"},
	{ID: "princeton", Name: "Princeton"},
	{ID: "michigan", Name: "Michigan"},
	{ID: "osu", Name: "Ohio State"},
	{ID: "usc", Name: "USC"},
}

// beltLog seeds a short history: Princeton takes the belt from Rutgers in
// 1869, defends once, then Michigan takes it in 2023 and defends twice.
func beltLog() []game.Game {
	return []game.Game{
		{Date: day(1869, time.November, 6), WinnerID: "rutgers", LoserID: "princeton", BeltChange: true},
		{Date: day(1869, time.November, 13), WinnerID: "princeton", LoserID: "rutgers", BeltChange: true},
		{Date: day(1869, time.November, 20), WinnerID: "princeton", LoserID: "rutgers"},
		{Date: day(2023, time.September, 2), WinnerID: "michigan", LoserID: "princeton", WinnerScore: intPtr(31), LoserScore: intPtr(7), BeltChange: true},
		{Date: day(2023, time.September, 9), WinnerID: "michigan", LoserID: "osu", WinnerScore: intPtr(24), LoserScore: intPtr(20)},
		{Date: day(2023, time.September, 16), WinnerID: "michigan", LoserID: "usc"},
	}
}

func newTestBeltService(games []game.Game, scheduleGames []schedule.Game) *BeltService {
	svc := NewBeltService(
		memory.NewGameRepository(games),
		memory.NewScheduleRepository(scheduleGames),
		memory.NewSchoolRepository(testSchools),
		logging.NewNop(),
	)
	svc.now = func() time.Time { return day(2023, time.October, 1) }
	return svc
}

func TestBeltServiceCurrentChampion(t *testing.T) {
	t.Parallel()

	svc := newTestBeltService(beltLog(), nil)

	status, err := svc.CurrentChampion(context.Background())
	if err != nil {
		t.Fatalf("CurrentChampion: %v", err)
	}
	if status.ChampionID != "michigan" {
		t.Fatalf("champion = %q, want michigan", status.ChampionID)
	}
	if status.ChampionName != "Michigan" {
		t.Fatalf("champion name = %q, want Michigan", status.ChampionName)
	}
	if status.Defenses != 2 {
		t.Fatalf("defenses = %d, want 2", status.Defenses)
	}
	if status.DaysHeld != 29 {
		t.Fatalf("days held = %d, want 29", status.DaysHeld)
	}
}

func TestBeltServiceCurrentChampionEmptyLog(t *testing.T) {
	t.Parallel()

	svc := newTestBeltService(nil, nil)

	if _, err := svc.CurrentChampion(context.Background()); !errors.Is(err, ErrNoChampionData) {
		t.Fatalf("err = %v, want ErrNoChampionData", err)
	}
}

func TestBeltServiceLongestReigns(t *testing.T) {
	t.Parallel()

	svc := newTestBeltService(beltLog(), nil)

	reigns, err := svc.LongestReigns(context.Background(), 2)
	if err != nil {
		t.Fatalf("LongestReigns: %v", err)
	}
	if len(reigns) != 2 {
		t.Fatalf("len = %d, want 2", len(reigns))
	}
	// Princeton held the belt from 1869 to 2023; that dwarfs everything else.
	if reigns[0].ChampionName != "Princeton" {
		t.Fatalf("top reign = %q, want Princeton", reigns[0].ChampionName)
	}
	if reigns[0].Current {
		t.Fatalf("closed reign reported as current")
	}
	if reigns[1].ChampionID != "michigan" || !reigns[1].Current {
		t.Fatalf("second reign = %+v, want current michigan reign", reigns[1])
	}
}

func TestBeltServiceTeamHistory(t *testing.T) {
	t.Parallel()

	svc := newTestBeltService(beltLog(), nil)

	h, err := svc.TeamHistory(context.Background(), "princeton")
	if err != nil {
		t.Fatalf("TeamHistory: %v", err)
	}
	if h.School.ID != "princeton" {
		t.Fatalf("school = %q, want princeton", h.School.ID)
	}
	if h.TotalReigns != 1 || h.TotalDefenses != 1 {
		t.Fatalf("reigns=%d defenses=%d, want 1 and 1", h.TotalReigns, h.TotalDefenses)
	}
	if h.LastWonFrom != "Rutgers" || h.LastLostTo != "Michigan" {
		t.Fatalf("won from %q lost to %q, want Rutgers and Michigan", h.LastWonFrom, h.LastLostTo)
	}
	if h.LastHeld == nil || !h.LastHeld.Equal(day(2023, time.September, 2)) {
		t.Fatalf("last held = %v, want 2023-09-02", h.LastHeld)
	}
}

func TestBeltServiceTeamHistoryAlias(t *testing.T) {
	t.Parallel()

	svc := newTestBeltService(beltLog(), nil)

	h, err := svc.TeamHistory(context.Background(), "Southern Cal")
	if err != nil {
		t.Fatalf("TeamHistory: %v", err)
	}
	if h.School.ID != "usc" {
		t.Fatalf("school = %q, want usc", h.School.ID)
	}
	if h.TotalReigns != 0 || h.LastHeld != nil {
		t.Fatalf("expected empty history, got %+v", h)
	}
}

func TestBeltServiceTeamHistoryNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestBeltService(beltLog(), nil)

	if _, err := svc.TeamHistory(context.Background(), "hogwarts"); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("err = %v, want ErrTeamNotFound", err)
	}
}

func TestBeltServiceOverallStats(t *testing.T) {
	t.Parallel()

	svc := newTestBeltService(beltLog(), nil)

	stats, err := svc.OverallStats(context.Background())
	if err != nil {
		t.Fatalf("OverallStats: %v", err)
	}
	if stats.TotalChanges != 3 {
		t.Fatalf("changes = %d, want 3", stats.TotalChanges)
	}
	if stats.TotalDefenses != 3 {
		t.Fatalf("defenses = %d, want 3", stats.TotalDefenses)
	}
	if stats.TotalBeltGames != 6 {
		t.Fatalf("belt games = %d, want 6", stats.TotalBeltGames)
	}
	if !stats.FirstChange.Equal(day(1869, time.November, 6)) {
		t.Fatalf("first change = %v, want 1869-11-06", stats.FirstChange)
	}
}

func TestBeltServiceGamesOnDate(t *testing.T) {
	t.Parallel()

	games := append(beltLog(),
		game.Game{Date: day(1980, time.September, 2), WinnerID: "usc", LoserID: "osu", BeltChange: true},
	)
	svc := newTestBeltService(games, nil)

	hits, err := svc.GamesOnDate(context.Background(), time.September, 2)
	if err != nil {
		t.Fatalf("GamesOnDate: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len = %d, want 2", len(hits))
	}
	if hits[0].Year != 2023 || hits[1].Year != 1980 {
		t.Fatalf("years = %d,%d, want 2023,1980", hits[0].Year, hits[1].Year)
	}
	if hits[0].WinnerName != "Michigan" || hits[0].LoserName != "Princeton" {
		t.Fatalf("names = %q beat %q", hits[0].WinnerName, hits[0].LoserName)
	}
	if hits[0].WinnerScore == nil || *hits[0].WinnerScore != 31 {
		t.Fatalf("winner score = %v, want 31", hits[0].WinnerScore)
	}
}

func TestBeltServiceNextBeltGame(t *testing.T) {
	t.Parallel()

	sched := []schedule.Game{
		{StartDate: day(2023, time.September, 16), HomeID: "michigan", AwayID: "usc", Week: 3, Completed: true},
		{StartDate: day(2023, time.October, 14), HomeID: "osu", AwayID: "michigan", Week: 7, Venue: "Ohio Stadium"},
		{StartDate: day(2023, time.October, 7), HomeID: "princeton", AwayID: "rutgers", Week: 6},
		{StartDate: day(2023, time.November, 25), HomeID: "michigan", AwayID: "osu", Week: 13},
	}
	svc := newTestBeltService(beltLog(), sched)

	next, found, err := svc.NextBeltGame(context.Background())
	if err != nil {
		t.Fatalf("NextBeltGame: %v", err)
	}
	if !found {
		t.Fatalf("expected a scheduled game")
	}
	if next.OpponentID != "osu" || next.OpponentName != "Ohio State" {
		t.Fatalf("opponent = %q (%q), want osu", next.OpponentID, next.OpponentName)
	}
	if next.Week != 7 || next.Venue != "Ohio Stadium" {
		t.Fatalf("week=%d venue=%q, want week 7 at Ohio Stadium", next.Week, next.Venue)
	}
	if next.ChampionHome {
		t.Fatalf("champion is the away side in week 7")
	}
}

func TestBeltServiceNextBeltGameNoneScheduled(t *testing.T) {
	t.Parallel()

	sched := []schedule.Game{
		{StartDate: day(2023, time.October, 7), HomeID: "princeton", AwayID: "rutgers", Week: 6},
	}
	svc := newTestBeltService(beltLog(), sched)

	_, found, err := svc.NextBeltGame(context.Background())
	if err != nil {
		t.Fatalf("NextBeltGame: %v", err)
	}
	if found {
		t.Fatalf("champion has no scheduled game, found should be false")
	}
}

type failingScheduleRepo struct{}

func (failingScheduleRepo) ListSchedule(context.Context, bool) ([]schedule.Game, error) {
	return nil, errors.New("feed down")
}

func TestBeltServiceNextBeltGameScheduleUnavailable(t *testing.T) {
	t.Parallel()

	svc := newTestBeltService(beltLog(), nil)
	svc.scheduleRepo = failingScheduleRepo{}

	_, _, err := svc.NextBeltGame(context.Background())
	if !errors.Is(err, ErrScheduleUnavailable) {
		t.Fatalf("err = %v, want ErrScheduleUnavailable", err)
	}
}
