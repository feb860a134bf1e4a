package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cfbbelt/beltbot/external/reddit"
	"github.com/cfbbelt/beltbot/external/sheets"
	"github.com/cfbbelt/beltbot/internal/config"
	"github.com/cfbbelt/beltbot/internal/infrastructure/repository/sheetfeed"
	"github.com/cfbbelt/beltbot/internal/interfaces/bot"
	"github.com/cfbbelt/beltbot/internal/interfaces/command"
	"github.com/cfbbelt/beltbot/internal/interfaces/httpapi"
	"github.com/cfbbelt/beltbot/internal/platform/logging"
	"github.com/cfbbelt/beltbot/internal/platform/resilience"
	"github.com/cfbbelt/beltbot/internal/usecase"
)

// App bundles the bot runner and the read-only HTTP API over shared services.
type App struct {
	Server *http.Server
	Runner *bot.Runner

	repos *sheetfeed.Repositories
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	sheetsClient := sheets.NewClient(sheets.ClientConfig{
		GamesURL:    cfg.GamesCSVURL,
		ScheduleURL: cfg.ScheduleCSVURL,
		SchoolsURL:  cfg.SchoolsCSVURL,
		Timeout:     cfg.SheetsTimeout,
		MaxRetries:  cfg.SheetsMaxRetries,
		Logger:      logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SheetsCircuitEnabled,
			FailureThreshold: cfg.SheetsCircuitFailureCount,
			OpenTimeout:      cfg.SheetsCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SheetsCircuitHalfOpenMaxReq,
		},
	})

	repos := sheetfeed.New(sheetsClient, sheetfeed.Config{
		TTL:    cfg.SheetsCacheTTL,
		Logger: logger,
	})

	beltSvc := usecase.NewBeltService(repos, repos, repos, logger)
	chaseSvc := usecase.NewChaseService(beltSvc, repos, logger)
	reportSvc := usecase.NewReportService(beltSvc, chaseSvc, cfg.WebsiteURL, logger)

	router := command.NewRouter(beltSvc, chaseSvc, cfg.WebsiteURL, logger)

	if cfg.RedditClientID == "" || cfg.RedditClientSecret == "" {
		return nil, fmt.Errorf("reddit credentials are not configured")
	}
	redditClient := reddit.NewClient(reddit.ClientConfig{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		Username:     cfg.RedditUsername,
		Password:     cfg.RedditPassword,
		UserAgent:    cfg.RedditUserAgent,
		Timeout:      cfg.RedditTimeout,
		MaxRetries:   cfg.RedditMaxRetries,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.RedditCircuitEnabled,
			FailureThreshold: cfg.RedditCircuitFailureCount,
			OpenTimeout:      cfg.RedditCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.RedditCircuitHalfOpenMaxReq,
		},
	})

	runner := bot.NewRunner(bot.Config{
		Subreddit:      cfg.TargetSubreddit,
		DryRun:         cfg.DryRun,
		PollInterval:   cfg.PollInterval,
		ReplyCooldown:  cfg.ReplyCooldown,
		PostCooldown:   cfg.PostCooldown,
		WeeklyWeekday:  cfg.WeeklyWeekday,
		WeeklyHour:     cfg.WeeklyHour,
		GameDayHour:    cfg.GameDayHour,
		MilestoneTopN:  cfg.MilestoneTopN,
		WorkerPoolSize: cfg.WorkerPoolSize,
		Location:       cfg.Timezone(),
	}, redditClient, router, beltSvc, reportSvc, logger)

	handler := httpapi.NewHandler(beltSvc, chaseSvc, logger)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, logger),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server: server,
		Runner: runner,
		repos:  repos,
	}, nil
}

// WarmUp primes the feed snapshots so the first command doesn't pay the
// fetch latency.
func (a *App) WarmUp(ctx context.Context) {
	a.repos.WarmUp(ctx)
}
