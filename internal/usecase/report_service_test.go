package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cfbbelt/beltbot/internal/domain/schedule"
	"github.com/cfbbelt/beltbot/internal/infrastructure/repository/memory"
	"github.com/cfbbelt/beltbot/internal/platform/logging"
)

const testSiteURL = "https://example.com/belt"

func newTestReportService(scheduleGames []schedule.Game) *ReportService {
	beltSvc := newTestBeltService(beltLog(), scheduleGames)
	chaseSvc := NewChaseService(beltSvc, memory.NewScheduleRepository(scheduleGames), logging.NewNop())
	chaseSvc.now = beltSvc.now
	svc := NewReportService(beltSvc, chaseSvc, testSiteURL, logging.NewNop())
	svc.now = beltSvc.now
	return svc
}

func TestReportServiceWeeklyUpdate(t *testing.T) {
	t.Parallel()

	sched := []schedule.Game{
		{StartDate: day(2023, time.October, 14), HomeID: "osu", AwayID: "michigan", Week: 7, Venue: "Ohio Stadium"},
	}
	svc := newTestReportService(sched)

	post, ok, err := svc.WeeklyUpdate(context.Background())
	if err != nil {
		t.Fatalf("WeeklyUpdate: %v", err)
	}
	if !ok {
		t.Fatalf("expected a post")
	}
	// now = 2023-10-01, season start Aug 25: week 5.
	if post.Title != "📢 CFB Linear Championship Belt Update - Week 5" {
		t.Fatalf("title = %q", post.Title)
	}
	for _, want := range []string{
		"Current Champion: Michigan",
		"**⏱️ Days Held:** 29",
		"**🛡️ Defenses This Reign:** 2",
		"**Week 7:** Michigan at Ohio State",
		"**🏟️ Location:** Ohio Stadium",
		testSiteURL,
	} {
		if !strings.Contains(post.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, post.Body)
		}
	}
	if strings.Contains(post.Body, "ON THE LINE THIS WEEK") {
		t.Fatalf("game is 13 days out, urgency banner should be absent")
	}
}

func TestReportServiceWeeklyUpdateNoChampion(t *testing.T) {
	t.Parallel()

	beltSvc := newTestBeltService(nil, nil)
	svc := NewReportService(beltSvc, nil, testSiteURL, logging.NewNop())
	svc.now = beltSvc.now

	_, ok, err := svc.WeeklyUpdate(context.Background())
	if err != nil {
		t.Fatalf("WeeklyUpdate: %v", err)
	}
	if ok {
		t.Fatalf("no champion, should skip the post")
	}
}

func TestReportServiceGameDayAlert(t *testing.T) {
	t.Parallel()

	sched := []schedule.Game{
		{StartDate: day(2023, time.October, 1).Add(19 * time.Hour), HomeID: "michigan", AwayID: "osu", Week: 5, Venue: "Michigan Stadium"},
	}
	svc := newTestReportService(sched)

	post, ok, err := svc.GameDayAlert(context.Background())
	if err != nil {
		t.Fatalf("GameDayAlert: %v", err)
	}
	if !ok {
		t.Fatalf("kickoff is today, expected an alert")
	}
	if post.Title != "⚔️ THE BELT IS ON THE LINE TODAY! ⚔️" {
		t.Fatalf("title = %q", post.Title)
	}
	if !strings.Contains(post.Body, "Michigan vs Ohio State") {
		t.Fatalf("body missing matchup:\n%s", post.Body)
	}
	if !strings.Contains(post.Body, "Will Michigan defend the belt, or will Ohio State become the new champion?") {
		t.Fatalf("body missing question:\n%s", post.Body)
	}
}

func TestReportServiceGameDayAlertNotToday(t *testing.T) {
	t.Parallel()

	sched := []schedule.Game{
		{StartDate: day(2023, time.October, 14), HomeID: "osu", AwayID: "michigan", Week: 7},
	}
	svc := newTestReportService(sched)

	_, ok, err := svc.GameDayAlert(context.Background())
	if err != nil {
		t.Fatalf("GameDayAlert: %v", err)
	}
	if ok {
		t.Fatalf("game is two weeks out, should not alert")
	}
}

func TestReportServiceBeltChangeAnnouncement(t *testing.T) {
	t.Parallel()

	svc := newTestReportService(nil)

	post, err := svc.BeltChangeAnnouncement(context.Background(), "michigan", "princeton", "31-7")
	if err != nil {
		t.Fatalf("BeltChangeAnnouncement: %v", err)
	}
	if post.Title != "🚨 BELT CHANGE! 🚨 Michigan defeats Princeton 31-7" {
		t.Fatalf("title = %q", post.Title)
	}
	for _, want := range []string{
		"NEW CHAMPION: Michigan!",
		"**Final Score:** Michigan defeats Princeton 31-7",
		"**Previous Champion:** Princeton",
		"This is Michigan's **1st time** holding the belt!",
	} {
		if !strings.Contains(post.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, post.Body)
		}
	}
	if strings.Contains(post.Body, "All-Time:") {
		t.Fatalf("first reign should not show the all-time line")
	}
}

func TestReportServiceBeltDefenseAnnouncement(t *testing.T) {
	t.Parallel()

	sched := []schedule.Game{
		{StartDate: day(2023, time.October, 14), HomeID: "osu", AwayID: "michigan", Week: 7, Venue: "Ohio Stadium"},
	}
	svc := newTestReportService(sched)

	post, err := svc.BeltDefenseAnnouncement(context.Background(), "michigan", "usc", "24-20", 2)
	if err != nil {
		t.Fatalf("BeltDefenseAnnouncement: %v", err)
	}
	if post.Title != "🛡️ BELT DEFENDED! 🛡️ Michigan defeats USC 24-20" {
		t.Fatalf("title = %q", post.Title)
	}
	for _, want := range []string{
		"Michigan retains the belt!",
		"**Defenses This Reign:** 2",
		"**Next Defense:** Week 7 vs Ohio State on October 14",
		"🏆 Michigan keeps the belt!",
	} {
		if !strings.Contains(post.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, post.Body)
		}
	}
}

func TestReportServiceBeltChaseSummary(t *testing.T) {
	t.Parallel()

	sched := []schedule.Game{
		{StartDate: day(2023, time.October, 14), HomeID: "osu", AwayID: "michigan", Week: 7},
		{StartDate: day(2023, time.October, 28), HomeID: "usc", AwayID: "osu", Week: 9},
	}
	svc := newTestReportService(sched)

	post, err := svc.BeltChaseSummary(context.Background())
	if err != nil {
		t.Fatalf("BeltChaseSummary: %v", err)
	}
	if !strings.Contains(post.Title, "Michigan Chase") {
		t.Fatalf("title = %q", post.Title)
	}
	if !strings.Contains(post.Body, "**2 teams** still have a schedule path") {
		t.Fatalf("body missing count:\n%s", post.Body)
	}
	if !strings.Contains(post.Body, "| Ohio State | 1 | 7 |") {
		t.Fatalf("body missing Ohio State row:\n%s", post.Body)
	}
}

func TestReportServiceBeltChaseSummaryLocked(t *testing.T) {
	t.Parallel()

	svc := newTestReportService(nil)

	post, err := svc.BeltChaseSummary(context.Background())
	if err != nil {
		t.Fatalf("BeltChaseSummary: %v", err)
	}
	if !strings.Contains(post.Body, "No team on the remaining schedule can reach the belt.") {
		t.Fatalf("body missing locked message:\n%s", post.Body)
	}
}

func TestReportServiceLongestReignMilestone(t *testing.T) {
	t.Parallel()

	svc := newTestReportService(nil)

	post, ok, err := svc.LongestReignMilestone(context.Background(), 10)
	if err != nil {
		t.Fatalf("LongestReignMilestone: %v", err)
	}
	if !ok {
		t.Fatalf("current reign is in the top 10, expected a post")
	}
	if !strings.Contains(post.Title, "Michigan's reign") {
		t.Fatalf("title = %q", post.Title)
	}
	if !strings.Contains(post.Body, "👑") {
		t.Fatalf("body should mark the current reign:\n%s", post.Body)
	}
}

func TestReportServiceLongestReignMilestoneNotRanked(t *testing.T) {
	t.Parallel()

	// Only the top slot is considered; Princeton's 150-year reign owns it.
	svc := newTestReportService(nil)

	_, ok, err := svc.LongestReignMilestone(context.Background(), 1)
	if err != nil {
		t.Fatalf("LongestReignMilestone: %v", err)
	}
	if ok {
		t.Fatalf("current reign is not the longest, should skip")
	}
}

func TestWeekNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"season opener", day(2023, time.August, 26), 0},
		{"early october", day(2023, time.October, 1), 5},
		{"deep postseason clamps", day(2024, time.January, 8), 15},
		{"offseason uses prior season start", day(2024, time.March, 1), 15},
	}
	for _, tc := range cases {
		if got := weekNumber(tc.now); got != tc.want {
			t.Fatalf("%s: weekNumber = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestOrdinal(t *testing.T) {
	t.Parallel()

	cases := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 101: "101st", 112: "112th"}
	for n, want := range cases {
		if got := ordinal(n); got != want {
			t.Fatalf("ordinal(%d) = %q, want %q", n, got, want)
		}
	}
}
