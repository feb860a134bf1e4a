package command

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cfbbelt/beltbot/internal/domain/game"
	"github.com/cfbbelt/beltbot/internal/domain/schedule"
	"github.com/cfbbelt/beltbot/internal/domain/school"
	"github.com/cfbbelt/beltbot/internal/infrastructure/repository/memory"
	"github.com/cfbbelt/beltbot/internal/platform/logging"
	"github.com/cfbbelt/beltbot/internal/usecase"
)

const testSiteURL = "https://example.com/belt"

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	games := []game.Game{
		{Date: day(1869, time.November, 6), WinnerID: "rutgers", LoserID: "princeton", BeltChange: true},
		{Date: day(2023, time.September, 2), WinnerID: "michigan", LoserID: "rutgers", BeltChange: true},
		{Date: day(2023, time.September, 9), WinnerID: "michigan", LoserID: "usc"},
	}
	// Kickoff far in the future so the game stays upcoming whenever the
	// suite runs; services measure "upcoming" against the wall clock.
	sched := []schedule.Game{
		{StartDate: day(2999, time.October, 14), HomeID: "osu", AwayID: "michigan", Week: 7, Venue: "Ohio Stadium"},
	}
	schools := []school.School{
		{ID: "rutgers", Name: "Rutgers"},
		{ID: "princeton", Name: "Princeton"},
		{ID: "michigan", Name: "Michigan"},
		{ID: "osu", Name: "Ohio State"},
		{ID: "usc", Name: "USC"},
	}

	scheduleRepo := memory.NewScheduleRepository(sched)
	beltSvc := usecase.NewBeltService(
		memory.NewGameRepository(games),
		scheduleRepo,
		memory.NewSchoolRepository(schools),
		logging.NewNop(),
	)
	chaseSvc := usecase.NewChaseService(beltSvc, scheduleRepo, logging.NewNop())
	router := NewRouter(beltSvc, chaseSvc, testSiteURL, logging.NewNop())
	router.now = func() time.Time { return day(2023, time.October, 1) }
	return router
}

func TestHasTrigger(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want bool
	}{
		{"!beltbot help", true},
		{"Hey !BELT who has it?", true},
		{"somebody say !beltbot stats", true},
		{"nice game today", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := HasTrigger(tc.text); got != tc.want {
			t.Fatalf("HasTrigger(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestRouterHelp(t *testing.T) {
	t.Parallel()

	reply := newTestRouter(t).Handle(context.Background(), "!beltbot help")
	for _, want := range []string{
		"CFB Belt Bot Commands",
		"`!beltbot history [team]`",
		"`!beltbot chase`",
		"Rutgers started this",
	} {
		if !strings.Contains(reply, want) {
			t.Fatalf("help reply missing %q:\n%s", want, reply)
		}
	}
}

func TestRouterDefaultStatus(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	for _, text := range []string{"!beltbot", "!belt", "!beltbot whatever", ""} {
		reply := router.Handle(context.Background(), text)
		if !strings.Contains(reply, "CFB Linear Championship Belt Status") {
			t.Fatalf("Handle(%q) did not fall back to status:\n%s", text, reply)
		}
		if !strings.Contains(reply, "**Current Champion:** Michigan") {
			t.Fatalf("Handle(%q) missing champion:\n%s", text, reply)
		}
	}
}

func TestRouterNextGame(t *testing.T) {
	t.Parallel()

	reply := newTestRouter(t).Handle(context.Background(), "!beltbot next")
	for _, want := range []string{
		"Next Belt Game",
		"**Michigan** (1 defenses) at **Ohio State**",
		"Ohio Stadium",
		"days away",
	} {
		if !strings.Contains(reply, want) {
			t.Fatalf("next reply missing %q:\n%s", want, reply)
		}
	}
}

func TestRouterStats(t *testing.T) {
	t.Parallel()

	reply := newTestRouter(t).Handle(context.Background(), "!beltbot stats")
	for _, want := range []string{
		"Belt Statistics",
		"**Belt Changes:** 2",
		"**Defenses:** 1",
		"**Total Belt Games:** 3",
	} {
		if !strings.Contains(reply, want) {
			t.Fatalf("stats reply missing %q:\n%s", want, reply)
		}
	}
}

func TestRouterHistory(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	reply := router.Handle(context.Background(), "!beltbot history rutgers")
	for _, want := range []string{
		"Rutgers Belt History",
		"**Total Reigns:** 1",
		"**Last Won From:** Princeton",
		"**Last Lost To:** Michigan",
	} {
		if !strings.Contains(reply, want) {
			t.Fatalf("history reply missing %q:\n%s", want, reply)
		}
	}

	if reply := router.Handle(context.Background(), "!beltbot history"); !strings.Contains(reply, "Please specify a team!") {
		t.Fatalf("missing-team reply wrong:\n%s", reply)
	}
	if reply := router.Handle(context.Background(), "!beltbot history hogwarts"); !strings.Contains(reply, "Couldn't find a team matching 'hogwarts'") {
		t.Fatalf("unknown-team reply wrong:\n%s", reply)
	}
	if reply := router.Handle(context.Background(), "!beltbot history princeton"); !strings.Contains(reply, "has never held the belt... yet!") {
		t.Fatalf("never-held reply wrong:\n%s", reply)
	}
}

func TestRouterHistoryAlias(t *testing.T) {
	t.Parallel()

	reply := newTestRouter(t).Handle(context.Background(), "!beltbot history southern cal")
	if !strings.Contains(reply, "USC Belt History") {
		t.Fatalf("alias did not resolve to USC:\n%s", reply)
	}
}

func TestRouterChase(t *testing.T) {
	t.Parallel()

	reply := newTestRouter(t).Handle(context.Background(), "!belt chase")
	for _, want := range []string{
		"The Michigan Chase",
		"**Ohio State** - 1 games away (earliest: week 7)",
	} {
		if !strings.Contains(reply, want) {
			t.Fatalf("chase reply missing %q:\n%s", want, reply)
		}
	}
}

func TestRouterOnThisDay(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	router.now = func() time.Time { return day(2024, time.September, 2) }

	reply := router.Handle(context.Background(), "!beltbot onthisday")
	if !strings.Contains(reply, "Belt Changes on September 2") {
		t.Fatalf("onthisday reply wrong:\n%s", reply)
	}
	if !strings.Contains(reply, "**2023:** Michigan took the belt from Rutgers") {
		t.Fatalf("onthisday missing 2023 change:\n%s", reply)
	}

	router.now = func() time.Time { return day(2024, time.July, 4) }
	if reply := router.Handle(context.Background(), "!beltbot onthisday"); !strings.Contains(reply, "No belt has ever changed hands on July 4") {
		t.Fatalf("quiet-day reply wrong:\n%s", reply)
	}
}

func TestRouterTopReigns(t *testing.T) {
	t.Parallel()

	reply := newTestRouter(t).Handle(context.Background(), "!beltbot top 2")
	if !strings.Contains(reply, "Longest Belt Reigns Ever (Top 2)") {
		t.Fatalf("top reply wrong:\n%s", reply)
	}
	if !strings.Contains(reply, "1. **Rutgers**") {
		t.Fatalf("top reply should rank the 154-year Rutgers reign first:\n%s", reply)
	}
	if !strings.Contains(reply, "👑 *(current)*") {
		t.Fatalf("top reply should mark the current reign:\n%s", reply)
	}
}

func TestRouterSignature(t *testing.T) {
	t.Parallel()

	reply := newTestRouter(t).Handle(context.Background(), "!beltbot help")
	if !strings.Contains(reply, "^(🏆 Rutgers started this | [Tracker]("+testSiteURL+")") {
		t.Fatalf("reply missing signature footer:\n%s", reply)
	}
}
