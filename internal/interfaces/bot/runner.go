// Package bot runs the poll loop: answering comment triggers and mentions,
// and publishing scheduled belt posts.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/cfbbelt/beltbot/external/reddit"
	"github.com/cfbbelt/beltbot/internal/interfaces/command"
	"github.com/cfbbelt/beltbot/internal/platform/logging"
	"github.com/cfbbelt/beltbot/internal/usecase"
)

// Social is the subreddit surface the runner publishes through.
type Social interface {
	Me(ctx context.Context) (string, error)
	SubmitPost(ctx context.Context, subreddit, title, body string) (string, error)
	Reply(ctx context.Context, parentFullname, text string) error
	NewComments(ctx context.Context, subreddit string, limit int) ([]reddit.Comment, error)
	Mentions(ctx context.Context, limit int) ([]reddit.Comment, error)
}

const (
	postTypeWeekly    = "weekly_update"
	postTypeGameDay   = "game_day_alert"
	postTypeChange    = "belt_change"
	postTypeDefense   = "belt_defense"
	postTypeMilestone = "milestone"
)

type Config struct {
	Subreddit      string
	DryRun         bool
	PollInterval   time.Duration
	CommentLimit   int
	MentionLimit   int
	CommentMaxAge  time.Duration
	ReplyCooldown  time.Duration
	PostCooldown   time.Duration
	WeeklyWeekday  time.Weekday
	WeeklyHour     int
	GameDayHour    int
	MilestoneTopN  int
	WorkerPoolSize int
	Location       *time.Location
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.CommentLimit <= 0 {
		c.CommentLimit = 25
	}
	if c.MentionLimit <= 0 {
		c.MentionLimit = 10
	}
	if c.CommentMaxAge <= 0 {
		c.CommentMaxAge = 10 * time.Minute
	}
	if c.ReplyCooldown <= 0 {
		c.ReplyCooldown = time.Minute
	}
	if c.PostCooldown <= 0 {
		c.PostCooldown = time.Hour
	}
	if c.WeeklyHour <= 0 {
		c.WeeklyHour = 10
	}
	if c.GameDayHour <= 0 {
		c.GameDayHour = 8
	}
	if c.MilestoneTopN <= 0 {
		c.MilestoneTopN = 10
	}
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = 4
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

// Runner polls for inbound commands and drives the posting schedule.
type Runner struct {
	cfg     Config
	social  Social
	router  *command.Router
	belt    *usecase.BeltService
	reports *usecase.ReportService
	logger  *logging.Logger
	now     func() time.Time

	replies *Cooldown
	posts   *Cooldown

	username string

	mu            sync.Mutex
	lastWeeklyDay string
	lastDailyDay  string
	prevChampion  usecase.ChampionStatus
	haveChampion  bool
	lastMilestone string
}

func NewRunner(cfg Config, social Social, router *command.Router, beltService *usecase.BeltService, reports *usecase.ReportService, logger *logging.Logger) *Runner {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logging.Default()
	}

	return &Runner{
		cfg:     cfg,
		social:  social,
		router:  router,
		belt:    beltService,
		reports: reports,
		logger:  logger,
		now:     time.Now,
		replies: NewCooldown(cfg.ReplyCooldown),
		posts:   NewCooldown(cfg.PostCooldown),
	}
}

// Run polls until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	name, err := r.social.Me(ctx)
	if err != nil {
		return fmt.Errorf("verify reddit identity: %w", err)
	}
	r.username = name

	r.logger.InfoContext(ctx, "bot running",
		"account", name,
		"subreddit", r.cfg.Subreddit,
		"poll_interval", r.cfg.PollInterval,
		"dry_run", r.cfg.DryRun,
	)

	pool, err := ants.NewPool(r.cfg.WorkerPoolSize)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		r.tick(ctx, pool)

		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "bot stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) tick(ctx context.Context, pool *ants.Pool) {
	r.checkMentions(ctx, pool)
	r.checkComments(ctx, pool)
	r.checkSchedule(ctx)
	r.checkResults(ctx)
}

func (r *Runner) checkMentions(ctx context.Context, pool *ants.Pool) {
	mentions, err := r.social.Mentions(ctx, r.cfg.MentionLimit)
	if err != nil {
		r.logger.WarnContext(ctx, "check mentions failed", "error", err)
		return
	}
	for _, mention := range mentions {
		r.dispatchReply(ctx, pool, mention)
	}
}

func (r *Runner) checkComments(ctx context.Context, pool *ants.Pool) {
	comments, err := r.social.NewComments(ctx, r.cfg.Subreddit, r.cfg.CommentLimit)
	if err != nil {
		r.logger.WarnContext(ctx, "check comments failed", "error", err)
		return
	}

	cutoff := r.now().Add(-r.cfg.CommentMaxAge)
	for _, comment := range comments {
		if !command.HasTrigger(comment.Body) {
			continue
		}
		if comment.CreatedAt.Before(cutoff) {
			continue
		}
		r.dispatchReply(ctx, pool, comment)
	}
}

func (r *Runner) dispatchReply(ctx context.Context, pool *ants.Pool, comment reddit.Comment) {
	if comment.Author == "" || strings.EqualFold(comment.Author, r.username) {
		return
	}
	if !r.replies.Touch(comment.Fullname) {
		return
	}

	if err := pool.Submit(func() {
		reply := r.router.Handle(ctx, comment.Body)
		if r.cfg.DryRun {
			r.logger.InfoContext(ctx, "dry run: would reply",
				"to", comment.Fullname, "author", comment.Author, "chars", len(reply))
			return
		}
		if err := r.social.Reply(ctx, comment.Fullname, reply); err != nil {
			r.logger.WarnContext(ctx, "reply failed", "to", comment.Fullname, "error", err)
			return
		}
		r.logger.InfoContext(ctx, "replied", "to", comment.Fullname, "author", comment.Author)
	}); err != nil {
		r.logger.WarnContext(ctx, "submit reply task failed", "error", err)
	}
}

// checkSchedule fires the Monday weekly update and the daily game-day check
// once per local day each, at or after their configured hours.
func (r *Runner) checkSchedule(ctx context.Context) {
	now := r.now().In(r.cfg.Location)
	dayKey := now.Format("2006-01-02")

	r.mu.Lock()
	weeklyDue := now.Weekday() == r.cfg.WeeklyWeekday && now.Hour() >= r.cfg.WeeklyHour && r.lastWeeklyDay != dayKey
	if weeklyDue {
		r.lastWeeklyDay = dayKey
	}
	dailyDue := now.Hour() >= r.cfg.GameDayHour && r.lastDailyDay != dayKey
	if dailyDue {
		r.lastDailyDay = dayKey
	}
	r.mu.Unlock()

	if weeklyDue {
		if post, ok, err := r.reports.WeeklyUpdate(ctx); err != nil {
			r.logger.WarnContext(ctx, "weekly update failed", "error", err)
		} else if ok {
			r.publish(ctx, postTypeWeekly, post)
		}
	}

	if dailyDue {
		if post, ok, err := r.reports.GameDayAlert(ctx); err != nil {
			r.logger.WarnContext(ctx, "game day check failed", "error", err)
		} else if ok {
			r.publish(ctx, postTypeGameDay, post)
		}
	}
}

// checkResults watches for champion transitions between ticks and announces
// changes, defenses, and reign milestones.
func (r *Runner) checkResults(ctx context.Context) {
	status, err := r.belt.CurrentChampion(ctx)
	if err != nil {
		return
	}

	r.mu.Lock()
	prev := r.prevChampion
	have := r.haveChampion
	r.prevChampion = status
	r.haveChampion = true
	r.mu.Unlock()

	if have && prev.ChampionID != status.ChampionID {
		if post, err := r.reports.BeltChangeAnnouncement(ctx, status.ChampionID, prev.ChampionID, r.latestScore(ctx)); err != nil {
			r.logger.WarnContext(ctx, "belt change announcement failed", "error", err)
		} else {
			r.publish(ctx, postTypeChange, post)
		}
	} else if have && status.Defenses > prev.Defenses {
		challenger := ""
		if g, ok, err := r.belt.LatestGame(ctx); err == nil && ok && g.WinnerID == status.ChampionID {
			challenger = g.LoserID
		}
		if post, err := r.reports.BeltDefenseAnnouncement(ctx, status.ChampionID, challenger, r.latestScore(ctx), status.Defenses); err != nil {
			r.logger.WarnContext(ctx, "belt defense announcement failed", "error", err)
		} else {
			r.publish(ctx, postTypeDefense, post)
		}
	}

	r.checkMilestone(ctx, status)
}

func (r *Runner) latestScore(ctx context.Context) string {
	g, ok, err := r.belt.LatestGame(ctx)
	if err != nil || !ok || g.WinnerScore == nil || g.LoserScore == nil {
		return ""
	}
	return fmt.Sprintf("%d-%d", *g.WinnerScore, *g.LoserScore)
}

func (r *Runner) checkMilestone(ctx context.Context, status usecase.ChampionStatus) {
	post, ok, err := r.reports.LongestReignMilestone(ctx, r.cfg.MilestoneTopN)
	if err != nil || !ok {
		return
	}

	// one announcement per champion+title combination
	key := status.ChampionID + "|" + post.Title
	r.mu.Lock()
	repeat := r.lastMilestone == key
	if !repeat {
		r.lastMilestone = key
	}
	r.mu.Unlock()
	if repeat {
		return
	}

	r.publish(ctx, postTypeMilestone, post)
}

func (r *Runner) publish(ctx context.Context, postType string, post usecase.Post) {
	if !r.posts.Touch("post:" + postType) {
		r.logger.DebugContext(ctx, "post rate limited", "type", postType)
		return
	}

	if r.cfg.DryRun {
		r.logger.InfoContext(ctx, "dry run: would post",
			"type", postType, "title", post.Title, "chars", len(post.Body))
		return
	}

	postURL, err := r.social.SubmitPost(ctx, r.cfg.Subreddit, post.Title, post.Body)
	if err != nil {
		r.logger.WarnContext(ctx, "submit post failed", "type", postType, "error", err)
		return
	}
	r.logger.InfoContext(ctx, "posted", "type", postType, "title", post.Title, "url", postURL)
}
