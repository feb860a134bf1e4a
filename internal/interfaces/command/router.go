// Package command parses free-text bot triggers from comments and renders
// markdown replies.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cfbbelt/beltbot/internal/platform/logging"
	"github.com/cfbbelt/beltbot/internal/usecase"
)

const (
	sourceRepoURL = "https://github.com/cfbbelt/beltbot"
	issuesURL     = sourceRepoURL + "/issues"

	apologyUnavailable = "Unable to fetch belt data right now. Try again later!"
)

// Triggers are the comment prefixes the bot answers to.
var Triggers = []string{"!beltbot", "!belt"}

// HasTrigger reports whether the comment text contains any trigger word.
func HasTrigger(text string) bool {
	lc := strings.ToLower(text)
	for _, t := range Triggers {
		if strings.Contains(lc, t) {
			return true
		}
	}
	return false
}

// Router turns comment text into reply markdown.
type Router struct {
	belt       *usecase.BeltService
	chase      *usecase.ChaseService
	websiteURL string
	logger     *logging.Logger
	now        func() time.Time
}

func NewRouter(beltService *usecase.BeltService, chaseService *usecase.ChaseService, websiteURL string, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Default()
	}

	return &Router{
		belt:       beltService,
		chase:      chaseService,
		websiteURL: websiteURL,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle routes a comment to its subcommand. Empty and unrecognized input
// falls back to the current status reply; errors degrade to an apology so the
// bot always answers.
func (r *Router) Handle(ctx context.Context, text string) string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(text)))

	subcommand := ""
	args := []string(nil)
	if len(parts) > 0 {
		rest := parts
		if isTrigger(parts[0]) {
			rest = parts[1:]
		}
		if len(rest) > 0 {
			subcommand = rest[0]
			args = rest[1:]
		}
	}

	switch subcommand {
	case "help":
		return r.help()
	case "next":
		return r.nextGame(ctx)
	case "stats":
		return r.stats(ctx)
	case "history":
		return r.teamHistory(ctx, strings.Join(args, " "))
	case "chase":
		return r.chaseReport(ctx)
	case "onthisday":
		return r.onThisDay(ctx)
	case "top":
		return r.topReigns(ctx, args)
	default:
		return r.currentStatus(ctx)
	}
}

func isTrigger(word string) bool {
	for _, t := range Triggers {
		if word == t {
			return true
		}
	}
	return false
}

func (r *Router) currentStatus(ctx context.Context) string {
	status, err := r.belt.CurrentChampion(ctx)
	if err != nil {
		return r.apology(ctx, err)
	}

	var b strings.Builder
	b.WriteString("🏆 **CFB Linear Championship Belt Status**\n\n")
	fmt.Fprintf(&b, "**Current Champion:** %s\n\n", status.ChampionName)
	fmt.Fprintf(&b, "**Held Since:** %s (%d days)\n\n", status.ReignStart.Format("January 2, 2006"), status.DaysHeld)
	fmt.Fprintf(&b, "**Defenses This Reign:** %d\n\n", status.Defenses)

	next, found, err := r.belt.NextBeltGame(ctx)
	if err == nil && found {
		fmt.Fprintf(&b, "**Next Game:** Week %d - %s %s %s\n\n",
			next.Week, next.Date.Format("January 2"), vsOrAt(next.ChampionHome), next.OpponentName)
	} else {
		b.WriteString("**Next Game:** Schedule TBD\n\n")
	}

	fmt.Fprintf(&b, "[View full tracker](%s)", r.websiteURL)
	return r.sign(b.String())
}

func (r *Router) help() string {
	var b strings.Builder
	b.WriteString("🏆 **CFB Belt Bot Commands**\n\n")
	b.WriteString("**Available Commands:**\n\n")
	b.WriteString("• `!beltbot` - Current belt status\n\n")
	b.WriteString("• `!beltbot next` - Next belt game\n\n")
	b.WriteString("• `!beltbot stats` - Overall belt statistics\n\n")
	b.WriteString("• `!beltbot history [team]` - Team's belt history\n\n")
	b.WriteString("• `!beltbot chase` - Who can still take the belt\n\n")
	b.WriteString("• `!beltbot top [n]` - Longest reigns ever\n\n")
	b.WriteString("• `!beltbot onthisday` - Belt changes on this date\n\n")
	b.WriteString("• `!beltbot help` - This help message\n\n")
	b.WriteString("---\n\n")
	b.WriteString("**Need Help?**\n\n")
	fmt.Fprintf(&b, "• Full Tracker: %s\n\n", r.websiteURL)
	fmt.Fprintf(&b, "• Report bugs or data issues: [GitHub Issues](%s)\n\n", issuesURL)
	fmt.Fprintf(&b, "• Source code: [GitHub](%s)", sourceRepoURL)
	return r.sign(b.String())
}

func (r *Router) nextGame(ctx context.Context) string {
	status, err := r.belt.CurrentChampion(ctx)
	if err != nil {
		return r.apology(ctx, err)
	}

	next, found, err := r.belt.NextBeltGame(ctx)
	if err != nil {
		return r.apology(ctx, err)
	}
	if !found {
		return r.sign(fmt.Sprintf("🏆 **Next Belt Game**\n\n%s holds the belt, but no upcoming games are scheduled yet.", status.ChampionName))
	}

	var b strings.Builder
	b.WriteString("🏆 **Next Belt Game**\n\n")
	fmt.Fprintf(&b, "**%s** (%d defenses) %s **%s**\n\n", status.ChampionName, status.Defenses, vsOrAt(next.ChampionHome), next.OpponentName)
	fmt.Fprintf(&b, "📅 %s\n\n", next.Date.Format("Monday, January 2, 2006"))
	fmt.Fprintf(&b, "🏟️ %s\n\n", next.Venue)
	fmt.Fprintf(&b, "Week %d\n\n", next.Week)

	switch days := int(next.Date.Sub(r.now()).Hours() / 24); {
	case days == 0:
		b.WriteString("🔥 **THE BELT IS ON THE LINE TODAY!**\n\n")
	case days == 1:
		b.WriteString("⏰ Tomorrow!\n\n")
	case days > 1:
		fmt.Fprintf(&b, "⏰ %d days away\n\n", days)
	}

	fmt.Fprintf(&b, "[Live tracker](%s)", r.websiteURL)
	return r.sign(b.String())
}

func (r *Router) stats(ctx context.Context) string {
	status, err := r.belt.CurrentChampion(ctx)
	if err != nil {
		return r.apology(ctx, err)
	}
	stats, err := r.belt.OverallStats(ctx)
	if err != nil {
		return r.apology(ctx, err)
	}

	var b strings.Builder
	b.WriteString("📊 **CFB Linear Championship Belt Statistics**\n\n")
	fmt.Fprintf(&b, "**Current Champion:** %s (%d defenses)\n\n", status.ChampionName, status.Defenses)
	b.WriteString("**Belt Established:** November 6, 1869 (Rutgers beat Princeton 6-4)\n\n")
	fmt.Fprintf(&b, "**Days Since Start:** %d\n\n", stats.DaysSinceStart)
	fmt.Fprintf(&b, "**Total Belt Games:** %d\n\n", stats.TotalBeltGames)
	fmt.Fprintf(&b, "**Belt Changes:** %d\n\n", stats.TotalChanges)
	fmt.Fprintf(&b, "**Defenses:** %d\n\n", stats.TotalDefenses)
	fmt.Fprintf(&b, "[Full statistics](%s)", r.websiteURL)
	return r.sign(b.String())
}

func (r *Router) teamHistory(ctx context.Context, teamText string) string {
	if strings.TrimSpace(teamText) == "" {
		return r.sign("Please specify a team! Example: `!beltbot history Michigan`")
	}

	h, err := r.belt.TeamHistory(ctx, teamText)
	if errors.Is(err, usecase.ErrTeamNotFound) {
		return r.sign(fmt.Sprintf("Couldn't find a team matching '%s'. Try a different spelling!", teamText))
	}
	if err != nil {
		return r.apology(ctx, err)
	}

	name := h.School.Name
	if h.TotalReigns == 0 {
		return r.sign(fmt.Sprintf("📊 **%s Belt History**\n\n%s has never held the belt... yet! 🏆", name, name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **%s Belt History**\n\n", name)
	fmt.Fprintf(&b, "**Total Reigns:** %d\n\n", h.TotalReigns)
	fmt.Fprintf(&b, "**Total Days Held:** %d\n\n", h.TotalDaysHeld)
	fmt.Fprintf(&b, "**Total Defenses:** %d\n\n", h.TotalDefenses)
	fmt.Fprintf(&b, "**Longest Reign:** %d days\n\n", h.LongestReignDays)
	if h.LastHeld != nil {
		fmt.Fprintf(&b, "**Last Held:** %s\n\n", h.LastHeld.Format("January 2, 2006"))
	}
	if h.LastWonFrom != "" {
		fmt.Fprintf(&b, "**Last Won From:** %s\n\n", h.LastWonFrom)
	}
	if h.LastLostTo != "" {
		fmt.Fprintf(&b, "**Last Lost To:** %s\n\n", h.LastLostTo)
	}
	fmt.Fprintf(&b, "[Full history](%s)", r.websiteURL)
	return r.sign(b.String())
}

func (r *Router) chaseReport(ctx context.Context) string {
	report, err := r.chase.Reachable(ctx)
	if err != nil {
		return r.apology(ctx, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🗺️ **The %s Chase**\n\n", report.ChampionName)
	if len(report.Entries) == 0 {
		fmt.Fprintf(&b, "No team on the remaining schedule can reach the belt. %s holds it until next season!\n\n", report.ChampionName)
	} else {
		fmt.Fprintf(&b, "**%d teams** still have a path to the belt:\n\n", len(report.Entries))
		limit := len(report.Entries)
		if limit > 10 {
			limit = 10
		}
		for _, e := range report.Entries[:limit] {
			fmt.Fprintf(&b, "• **%s** - %d games away (earliest: week %d)\n\n", e.TeamName, e.GamesAway, e.EarliestWeek)
		}
		if len(report.Entries) > limit {
			fmt.Fprintf(&b, "...and %d more\n\n", len(report.Entries)-limit)
		}
	}
	fmt.Fprintf(&b, "[Full tracker](%s)", r.websiteURL)
	return r.sign(b.String())
}

func (r *Router) onThisDay(ctx context.Context) string {
	now := r.now()
	games, err := r.belt.GamesOnDate(ctx, now.Month(), now.Day())
	if err != nil {
		return r.apology(ctx, err)
	}

	dateLabel := now.Format("January 2")
	if len(games) == 0 {
		return r.sign(fmt.Sprintf("📅 **On This Day**\n\nNo belt has ever changed hands on %s. The streak continues!", dateLabel))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 **Belt Changes on %s**\n\n", dateLabel)
	for _, g := range games {
		score := ""
		if g.WinnerScore != nil && g.LoserScore != nil {
			score = fmt.Sprintf(" %d-%d", *g.WinnerScore, *g.LoserScore)
		}
		fmt.Fprintf(&b, "• **%d:** %s took the belt from %s%s\n\n", g.Year, g.WinnerName, g.LoserName, score)
	}
	fmt.Fprintf(&b, "[Full history](%s)", r.websiteURL)
	return r.sign(b.String())
}

func (r *Router) topReigns(ctx context.Context, args []string) string {
	limit := 5
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 10 {
		limit = 10
	}

	reigns, err := r.belt.LongestReigns(ctx, limit)
	if err != nil {
		return r.apology(ctx, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏆 **Longest Belt Reigns Ever (Top %d)**\n\n", len(reigns))
	for i, reign := range reigns {
		marker := ""
		if reign.Current {
			marker = " 👑 *(current)*"
		}
		fmt.Fprintf(&b, "%d. **%s** - %d days, %d defenses%s\n\n", i+1, reign.ChampionName, reign.Days, reign.Defenses, marker)
	}
	fmt.Fprintf(&b, "[Full history](%s)", r.websiteURL)
	return r.sign(b.String())
}

func (r *Router) apology(ctx context.Context, err error) string {
	r.logger.WarnContext(ctx, "command degraded to apology", "error", err)
	return r.sign(apologyUnavailable)
}

// sign appends the bot signature footer.
func (r *Router) sign(body string) string {
	return body + fmt.Sprintf(
		"\n\n---\n^(🏆 Rutgers started this | [Tracker](%s) | [Source](%s) | !beltbot help for commands)\n\n^(Found a bug or incorrect data? [Report it here](%s))",
		r.websiteURL, sourceRepoURL, issuesURL,
	)
}

func vsOrAt(championHome bool) string {
	if championHome {
		return "vs"
	}
	return "at"
}
