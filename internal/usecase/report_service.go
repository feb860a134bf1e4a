package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cfbbelt/beltbot/internal/platform/logging"
)

// seasonStartMonthDay approximates the first kickoff of a season; real week
// numbers come from the schedule feed when present.
const (
	seasonStartMonth = time.August
	seasonStartDay   = 25
	seasonFinalWeek  = 15
)

// Post is a rendered subreddit submission.
type Post struct {
	Title string
	Body  string
}

// ReportService renders scheduled posts and announcements from belt state.
type ReportService struct {
	belt       *BeltService
	chase      *ChaseService
	websiteURL string
	logger     *logging.Logger
	now        func() time.Time
}

func NewReportService(beltService *BeltService, chaseService *ChaseService, websiteURL string, logger *logging.Logger) *ReportService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ReportService{
		belt:       beltService,
		chase:      chaseService,
		websiteURL: websiteURL,
		logger:     logger,
		now:        time.Now,
	}
}

// WeeklyUpdate renders the Monday status post. ok is false when there is no
// champion to report on.
func (s *ReportService) WeeklyUpdate(ctx context.Context) (Post, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.WeeklyUpdate")
	defer span.End()

	status, err := s.belt.CurrentChampion(ctx)
	if err != nil {
		if isSoftReportError(err) {
			return Post{}, false, nil
		}
		return Post{}, false, err
	}

	now := s.now()
	title := fmt.Sprintf("📢 CFB Linear Championship Belt Update - Week %d", weekNumber(now))

	var b strings.Builder
	fmt.Fprintf(&b, "# 🏆 Current Champion: %s\n\n", status.ChampionName)
	fmt.Fprintf(&b, "**📅 Held Since:** %s\n\n", status.ReignStart.Format("January 2, 2006"))
	fmt.Fprintf(&b, "**⏱️ Days Held:** %d\n\n", status.DaysHeld)
	fmt.Fprintf(&b, "**🛡️ Defenses This Reign:** %d\n\n", status.Defenses)

	next, found, err := s.belt.NextBeltGame(ctx)
	if err != nil && !isSoftReportError(err) {
		return Post{}, false, err
	}
	if found {
		fmt.Fprintf(&b, "## ⚔️ Next Belt Game\n\n")
		fmt.Fprintf(&b, "**Week %d:** %s %s %s\n\n", next.Week, status.ChampionName, vsOrAt(next.ChampionHome), next.OpponentName)
		fmt.Fprintf(&b, "**📅 Date:** %s\n\n", next.Date.Format("Monday, January 2"))
		fmt.Fprintf(&b, "**🏟️ Location:** %s\n\n", next.Venue)

		if daysUntil(now, next.Date) <= 3 {
			b.WriteString("**🔥 THE BELT IS ON THE LINE THIS WEEK!**\n\n")
		}
	}

	b.WriteString("---\n\n")
	b.WriteString("## 📖 What is the Linear Championship Belt?\n\n")
	b.WriteString("The belt started with the first college football game ever played (Rutgers beat Princeton, 6-4, on November 6, 1869). ")
	b.WriteString("It passes from winner to winner, like a boxing championship belt. Only the team that beats the current holder can win it!\n\n")
	fmt.Fprintf(&b, "📊 [Full Tracker & History](%s)\n\n", s.websiteURL)
	b.WriteString("🏆 Rutgers started this. We're just tracking it.")

	return Post{Title: title, Body: b.String()}, true, nil
}

// GameDayAlert renders the morning-of post when the belt is on the line
// today. ok is false on any other day.
func (s *ReportService) GameDayAlert(ctx context.Context) (Post, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.GameDayAlert")
	defer span.End()

	status, err := s.belt.CurrentChampion(ctx)
	if err != nil {
		if isSoftReportError(err) {
			return Post{}, false, nil
		}
		return Post{}, false, err
	}

	next, found, err := s.belt.NextBeltGame(ctx)
	if err != nil {
		if isSoftReportError(err) {
			return Post{}, false, nil
		}
		return Post{}, false, err
	}
	if !found || !sameDay(s.now(), next.Date) {
		return Post{}, false, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# 🏆 %s %s %s\n\n", status.ChampionName, vsOrAt(next.ChampionHome), next.OpponentName)
	fmt.Fprintf(&b, "**Current Champion:** %s (%d defenses this reign)\n\n", status.ChampionName, status.Defenses)
	fmt.Fprintf(&b, "**Location:** %s\n\n", next.Venue)
	fmt.Fprintf(&b, "**Week:** %d\n\n", next.Week)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "Will %s defend the belt, or will %s become the new champion?\n\n", status.ChampionName, next.OpponentName)
	fmt.Fprintf(&b, "📊 [Live Tracker](%s)\n\n", s.websiteURL)
	b.WriteString("🏆 Rutgers started this in 1869. Who's got it next?")

	return Post{
		Title: "⚔️ THE BELT IS ON THE LINE TODAY! ⚔️",
		Body:  b.String(),
	}, true, nil
}

// BeltChangeAnnouncement renders the new-champion post. score is an optional
// "31-7" style suffix.
func (s *ReportService) BeltChangeAnnouncement(ctx context.Context, newChampionID, oldChampionID, score string) (Post, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.BeltChangeAnnouncement")
	defer span.End()

	dir, err := s.belt.Directory(ctx)
	if err != nil {
		return Post{}, err
	}
	newName := dir.NameOf(newChampionID)
	oldName := dir.NameOf(oldChampionID)

	h, err := s.belt.history(ctx)
	if err != nil {
		return Post{}, err
	}
	now := s.now()

	title := fmt.Sprintf("🚨 BELT CHANGE! 🚨 %s defeats %s", newName, oldName)
	if score != "" {
		title += " " + score
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# 🏆 NEW CHAMPION: %s!\n\n", newName)
	if score != "" {
		fmt.Fprintf(&b, "**Final Score:** %s defeats %s %s\n\n", newName, oldName, score)
	}

	oldReigns := h.ByChampion(oldChampionID)
	endedDays, endedDefenses := 0, 0
	if n := len(oldReigns); n > 0 {
		last := oldReigns[n-1]
		endedDays = last.Days(now)
		endedDefenses = last.Defenses
	}
	fmt.Fprintf(&b, "**Previous Champion:** %s\n\n", oldName)
	fmt.Fprintf(&b, "**Reign Duration:** %d days\n\n", endedDays)
	fmt.Fprintf(&b, "**Defenses:** %d\n\n", endedDefenses)
	b.WriteString("---\n\n")

	newReigns := h.ByChampion(newChampionID)
	fmt.Fprintf(&b, "This is %s's **%s time** holding the belt!\n\n", newName, ordinal(len(newReigns)))
	if len(newReigns) > 1 {
		days, defenses := 0, 0
		for _, r := range newReigns {
			days += r.Days(now)
			defenses += r.Defenses
		}
		fmt.Fprintf(&b, "**All-Time:** %d days held, %d defenses\n\n", days, defenses)
	}

	fmt.Fprintf(&b, "📊 [Updated Tracker](%s)\n\n", s.websiteURL)
	b.WriteString("🏆 The belt lives on!")

	return Post{Title: title, Body: b.String()}, nil
}

// BeltDefenseAnnouncement renders the champion-retains post.
func (s *ReportService) BeltDefenseAnnouncement(ctx context.Context, championID, challengerID, score string, defenses int) (Post, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.BeltDefenseAnnouncement")
	defer span.End()

	dir, err := s.belt.Directory(ctx)
	if err != nil {
		return Post{}, err
	}
	championName := dir.NameOf(championID)
	challengerName := dir.NameOf(challengerID)

	title := fmt.Sprintf("🛡️ BELT DEFENDED! 🛡️ %s defeats %s", championName, challengerName)
	if score != "" {
		title += " " + score
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# 🏆 %s retains the belt!\n\n", championName)
	if score != "" {
		fmt.Fprintf(&b, "**Final Score:** %s defeats %s %s\n\n", championName, challengerName, score)
	}
	fmt.Fprintf(&b, "**Defenses This Reign:** %d\n\n", defenses)

	if next, found, err := s.belt.NextBeltGame(ctx); err == nil && found {
		fmt.Fprintf(&b, "**Next Defense:** Week %d vs %s on %s\n\n", next.Week, next.OpponentName, next.Date.Format("January 2"))
	}

	fmt.Fprintf(&b, "📊 [Updated Tracker](%s)\n\n", s.websiteURL)
	fmt.Fprintf(&b, "🏆 %s keeps the belt!", championName)

	return Post{Title: title, Body: b.String()}, nil
}

// BeltChaseSummary renders which teams can still reach the belt this season.
func (s *ReportService) BeltChaseSummary(ctx context.Context) (Post, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.BeltChaseSummary")
	defer span.End()

	report, err := s.chase.Reachable(ctx)
	if err != nil {
		return Post{}, err
	}

	title := fmt.Sprintf("🗺️ Who Can Take the Belt? The %s Chase", report.ChampionName)

	var b strings.Builder
	fmt.Fprintf(&b, "# 🏆 Current Champion: %s\n\n", report.ChampionName)

	if len(report.Entries) == 0 {
		b.WriteString("No team on the remaining schedule can reach the belt. ")
		fmt.Fprintf(&b, "%s holds it until next season!\n\n", report.ChampionName)
	} else {
		fmt.Fprintf(&b, "**%d teams** still have a schedule path to the belt:\n\n", len(report.Entries))
		b.WriteString("| Team | Games Away | Earliest Week |\n")
		b.WriteString("|------|-----------:|--------------:|\n")
		for _, e := range report.Entries {
			fmt.Fprintf(&b, "| %s | %d | %d |\n", e.TeamName, e.GamesAway, e.EarliestWeek)
		}
		b.WriteString("\nGames away counts the belt changes it would take; earliest week is the soonest that team could hold it.\n\n")
	}

	fmt.Fprintf(&b, "📊 [Full Tracker](%s)\n\n", s.websiteURL)
	b.WriteString("🏆 Rutgers started this. We're just tracking it.")

	return Post{Title: title, Body: b.String()}, nil
}

// LongestReignMilestone renders a post when the current reign cracks the
// all-time top list. ok is false while it has not.
func (s *ReportService) LongestReignMilestone(ctx context.Context, topN int) (Post, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.LongestReignMilestone")
	defer span.End()

	if topN <= 0 {
		topN = 10
	}

	reigns, err := s.belt.LongestReigns(ctx, topN)
	if err != nil {
		if isSoftReportError(err) {
			return Post{}, false, nil
		}
		return Post{}, false, err
	}

	rank := 0
	var current ReignSummary
	for i, r := range reigns {
		if r.Current {
			rank = i + 1
			current = r
			break
		}
	}
	if rank == 0 {
		return Post{}, false, nil
	}

	title := fmt.Sprintf("📏 Milestone: %s's reign is now the %s longest ever", current.ChampionName, ordinal(rank))

	var b strings.Builder
	fmt.Fprintf(&b, "# 🏆 %s has held the belt for %d days\n\n", current.ChampionName, current.Days)
	fmt.Fprintf(&b, "That makes this reign the **%s longest** in the belt's history, with %d defenses so far.\n\n", ordinal(rank), current.Defenses)
	b.WriteString("**All-Time Longest Reigns:**\n\n")
	for i, r := range reigns {
		marker := ""
		if r.Current {
			marker = " 👑"
		}
		fmt.Fprintf(&b, "%d. %s — %d days (%d defenses)%s\n", i+1, r.ChampionName, r.Days, r.Defenses, marker)
	}
	fmt.Fprintf(&b, "\n📊 [Full Tracker](%s)\n\n", s.websiteURL)
	b.WriteString("🏆 The belt lives on!")

	return Post{Title: title, Body: b.String()}, true, nil
}

// isSoftReportError marks conditions where a scheduled post should be
// skipped rather than surfaced as a failure.
func isSoftReportError(err error) bool {
	return errorIsAny(err, ErrNoChampionData, ErrScheduleUnavailable, ErrDataUnavailable)
}

func vsOrAt(championHome bool) string {
	if championHome {
		return "vs"
	}
	return "at"
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func daysUntil(now, kickoff time.Time) int {
	return int(kickoff.Sub(now).Hours() / 24)
}

// weekNumber approximates the current CFB week from the calendar, clamped to
// [0, 15]. Off-season dates count against the previous season's start.
func weekNumber(now time.Time) int {
	start := time.Date(now.Year(), seasonStartMonth, seasonStartDay, 0, 0, 0, 0, now.Location())
	if now.Before(start) {
		start = time.Date(now.Year()-1, seasonStartMonth, seasonStartDay, 0, 0, 0, 0, now.Location())
	}

	weeks := int(now.Sub(start).Hours() / 24 / 7)
	if weeks < 0 {
		weeks = 0
	}
	if weeks > seasonFinalWeek {
		weeks = seasonFinalWeek
	}
	return weeks
}

func ordinal(n int) string {
	suffix := "th"
	if n%100 < 10 || n%100 > 20 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
