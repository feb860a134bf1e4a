package config

import (
	"strings"
	"testing"
	"time"

	"github.com/cfbbelt/beltbot/internal/platform/logging"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GAMES_CSV_URL", "https://docs.google.com/spreadsheets/games")
	t.Setenv("SCHEDULE_CSV_URL", "https://docs.google.com/spreadsheets/schedule")
	t.Setenv("SCHOOLS_CSV_URL", "https://docs.google.com/spreadsheets/schools")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AppEnv != EnvDev {
		t.Fatalf("AppEnv = %q, want %q", cfg.AppEnv, EnvDev)
	}
	if cfg.ServiceName != "beltbot" {
		t.Fatalf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.WebsiteURL != "https://rutgersstartedthis.com" {
		t.Fatalf("WebsiteURL = %q", cfg.WebsiteURL)
	}
	if cfg.SheetsCacheTTL != 15*time.Minute {
		t.Fatalf("SheetsCacheTTL = %v", cfg.SheetsCacheTTL)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.ReplyCooldown != time.Minute {
		t.Fatalf("ReplyCooldown = %v", cfg.ReplyCooldown)
	}
	if cfg.PostCooldown != time.Hour {
		t.Fatalf("PostCooldown = %v", cfg.PostCooldown)
	}
	if cfg.WeeklyWeekday != time.Monday {
		t.Fatalf("WeeklyWeekday = %v", cfg.WeeklyWeekday)
	}
	if cfg.WeeklyHour != 10 || cfg.GameDayHour != 8 {
		t.Fatalf("posting hours = %d/%d", cfg.WeeklyHour, cfg.GameDayHour)
	}
	if cfg.DryRun {
		t.Fatal("DryRun should default to false")
	}
	if cfg.UptraceEnabled || cfg.PyroscopeEnabled {
		t.Fatal("observability should default to disabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("POLL_INTERVAL", "2m")
	t.Setenv("WEEKLY_UPDATE_DAY", "friday")
	t.Setenv("WEEKLY_UPDATE_HOUR", "18")
	t.Setenv("TARGET_SUBREDDIT", "CFB")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AppEnv != EnvProd {
		t.Fatalf("AppEnv = %q", cfg.AppEnv)
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.LogLevel)
	}
	if !cfg.DryRun {
		t.Fatal("DryRun should be true")
	}
	if cfg.PollInterval != 2*time.Minute {
		t.Fatalf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.WeeklyWeekday != time.Friday || cfg.WeeklyHour != 18 {
		t.Fatalf("weekly schedule = %v %d", cfg.WeeklyWeekday, cfg.WeeklyHour)
	}
	if cfg.TargetSubreddit != "CFB" {
		t.Fatalf("TargetSubreddit = %q", cfg.TargetSubreddit)
	}
}

func TestLoadMissingSheetURL(t *testing.T) {
	t.Setenv("GAMES_CSV_URL", "")
	t.Setenv("SCHEDULE_CSV_URL", "https://docs.google.com/spreadsheets/schedule")
	t.Setenv("SCHOOLS_CSV_URL", "https://docs.google.com/spreadsheets/schools")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "GAMES_CSV_URL") {
		t.Fatalf("expected missing GAMES_CSV_URL error, got %v", err)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	cases := map[string]struct {
		key   string
		value string
	}{
		"bad app env":  {"APP_ENV", "production"},
		"bad bool":     {"DRY_RUN", "maybe"},
		"bad duration": {"POLL_INTERVAL", "soon"},
		"bad int":      {"SHEETS_MAX_RETRIES", "two"},
		"bad weekday":  {"WEEKLY_UPDATE_DAY", "someday"},
		"bad hour":     {"WEEKLY_UPDATE_HOUR", "25"},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.key, tc.value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestLoadUptraceRequiresDSN(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "UPTRACE_DSN") {
		t.Fatalf("expected missing UPTRACE_DSN error, got %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logging.Level{
		"debug":   logging.LevelDebug,
		"info":    logging.LevelInfo,
		"warn":    logging.LevelWarn,
		"warning": logging.LevelWarn,
		"error":   logging.LevelError,
		"":        logging.LevelInfo,
		"bogus":   logging.LevelInfo,
	}

	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTimezoneFallback(t *testing.T) {
	cfg := Config{TimezoneName: "Not/AZone"}
	if loc := cfg.Timezone(); loc != time.UTC {
		t.Fatalf("Timezone() = %v, want UTC", loc)
	}
}
