package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cfbbelt/beltbot/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the bot.
type Config struct {
	AppEnv           string
	ServiceName      string
	ServiceVersion   string
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	LogLevel         logging.Level

	GamesCSVURL    string
	ScheduleCSVURL string
	SchoolsCSVURL  string
	WebsiteURL     string

	SheetsTimeout               time.Duration
	SheetsMaxRetries            int
	SheetsCacheTTL              time.Duration
	SheetsCircuitEnabled        bool
	SheetsCircuitFailureCount   int
	SheetsCircuitOpenTimeout    time.Duration
	SheetsCircuitHalfOpenMaxReq int

	RedditClientID              string
	RedditClientSecret          string
	RedditUsername              string
	RedditPassword              string
	RedditUserAgent             string
	RedditTimeout               time.Duration
	RedditMaxRetries            int
	RedditCircuitEnabled        bool
	RedditCircuitFailureCount   int
	RedditCircuitOpenTimeout    time.Duration
	RedditCircuitHalfOpenMaxReq int

	TargetSubreddit string
	DryRun          bool
	PollInterval    time.Duration
	ReplyCooldown   time.Duration
	PostCooldown    time.Duration
	WeeklyWeekday   time.Weekday
	WeeklyHour      int
	GameDayHour     int
	MilestoneTopN   int
	WorkerPoolSize  int
	TimezoneName    string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	cfg := Config{}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}
	cfg.AppEnv = appEnv
	cfg.ServiceName = getEnv("SERVICE_NAME", "beltbot")
	cfg.ServiceVersion = getEnv("SERVICE_VERSION", "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	if cfg.HTTPReadTimeout, err = getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.HTTPWriteTimeout, err = getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	cfg.LogLevel = parseLogLevel(getEnv("LOG_LEVEL", "info"))

	cfg.GamesCSVURL = strings.TrimSpace(getEnv("GAMES_CSV_URL", ""))
	cfg.ScheduleCSVURL = strings.TrimSpace(getEnv("SCHEDULE_CSV_URL", ""))
	cfg.SchoolsCSVURL = strings.TrimSpace(getEnv("SCHOOLS_CSV_URL", ""))
	if cfg.GamesCSVURL == "" {
		return Config{}, fmt.Errorf("GAMES_CSV_URL is required")
	}
	if cfg.ScheduleCSVURL == "" {
		return Config{}, fmt.Errorf("SCHEDULE_CSV_URL is required")
	}
	if cfg.SchoolsCSVURL == "" {
		return Config{}, fmt.Errorf("SCHOOLS_CSV_URL is required")
	}
	cfg.WebsiteURL = getEnv("WEBSITE_URL", "https://rutgersstartedthis.com")

	if cfg.SheetsTimeout, err = getEnvAsDuration("SHEETS_TIMEOUT", 20*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SheetsMaxRetries, err = getEnvAsInt("SHEETS_MAX_RETRIES", 2); err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_MAX_RETRIES: %w", err)
	}
	if cfg.SheetsCacheTTL, err = getEnvAsDuration("SHEETS_CACHE_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SheetsCircuitEnabled, err = getEnvAsBool("SHEETS_CIRCUIT_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.SheetsCircuitFailureCount, err = getEnvAsInt("SHEETS_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.SheetsCircuitOpenTimeout, err = getEnvAsDuration("SHEETS_CIRCUIT_OPEN_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SheetsCircuitHalfOpenMaxReq, err = getEnvAsInt("SHEETS_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	cfg.RedditClientID = strings.TrimSpace(getEnv("REDDIT_CLIENT_ID", ""))
	cfg.RedditClientSecret = strings.TrimSpace(getEnv("REDDIT_CLIENT_SECRET", ""))
	cfg.RedditUsername = getEnv("REDDIT_USERNAME", "CFBBeltBot")
	cfg.RedditPassword = os.Getenv("REDDIT_PASSWORD")
	cfg.RedditUserAgent = getEnv("REDDIT_USER_AGENT", "beltbot/1.0 by u/CFBBeltBot")
	if cfg.RedditTimeout, err = getEnvAsDuration("REDDIT_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RedditMaxRetries, err = getEnvAsInt("REDDIT_MAX_RETRIES", 2); err != nil {
		return Config{}, fmt.Errorf("parse REDDIT_MAX_RETRIES: %w", err)
	}
	if cfg.RedditCircuitEnabled, err = getEnvAsBool("REDDIT_CIRCUIT_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.RedditCircuitFailureCount, err = getEnvAsInt("REDDIT_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return Config{}, fmt.Errorf("parse REDDIT_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.RedditCircuitOpenTimeout, err = getEnvAsDuration("REDDIT_CIRCUIT_OPEN_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RedditCircuitHalfOpenMaxReq, err = getEnvAsInt("REDDIT_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return Config{}, fmt.Errorf("parse REDDIT_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	cfg.TargetSubreddit = getEnv("TARGET_SUBREDDIT", "test")
	if cfg.DryRun, err = getEnvAsBool("DRY_RUN", false); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = getEnvAsDuration("POLL_INTERVAL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ReplyCooldown, err = getEnvAsDuration("REPLY_COOLDOWN", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.PostCooldown, err = getEnvAsDuration("POST_COOLDOWN", time.Hour); err != nil {
		return Config{}, err
	}
	weekday, err := parseWeekday(getEnv("WEEKLY_UPDATE_DAY", "monday"))
	if err != nil {
		return Config{}, err
	}
	cfg.WeeklyWeekday = weekday
	if cfg.WeeklyHour, err = getEnvAsInt("WEEKLY_UPDATE_HOUR", 10); err != nil {
		return Config{}, fmt.Errorf("parse WEEKLY_UPDATE_HOUR: %w", err)
	}
	if cfg.GameDayHour, err = getEnvAsInt("GAME_DAY_HOUR", 8); err != nil {
		return Config{}, fmt.Errorf("parse GAME_DAY_HOUR: %w", err)
	}
	if cfg.WeeklyHour < 0 || cfg.WeeklyHour > 23 || cfg.GameDayHour < 0 || cfg.GameDayHour > 23 {
		return Config{}, fmt.Errorf("posting hours must be within 0..23")
	}
	if cfg.MilestoneTopN, err = getEnvAsInt("MILESTONE_TOP_N", 10); err != nil {
		return Config{}, fmt.Errorf("parse MILESTONE_TOP_N: %w", err)
	}
	if cfg.WorkerPoolSize, err = getEnvAsInt("WORKER_POOL_SIZE", 4); err != nil {
		return Config{}, fmt.Errorf("parse WORKER_POOL_SIZE: %w", err)
	}
	cfg.TimezoneName = getEnv("POSTING_TIMEZONE", "America/New_York")

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return Config{}, err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return Config{}, err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName)
	cfg.PyroscopeAuthToken = os.Getenv("PYROSCOPE_AUTH_TOKEN")
	cfg.PyroscopeBasicAuthUser = os.Getenv("PYROSCOPE_BASIC_AUTH_USER")
	cfg.PyroscopeBasicAuthPassword = os.Getenv("PYROSCOPE_BASIC_AUTH_PASSWORD")
	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Timezone resolves the posting timezone, falling back to UTC when the name
// does not load.
func (c Config) Timezone() *time.Location {
	loc, err := time.LoadLocation(c.TimezoneName)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func parseWeekday(v string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "sunday", "sun", "0":
		return time.Sunday, nil
	case "monday", "mon", "1":
		return time.Monday, nil
	case "tuesday", "tue", "2":
		return time.Tuesday, nil
	case "wednesday", "wed", "3":
		return time.Wednesday, nil
	case "thursday", "thu", "4":
		return time.Thursday, nil
	case "friday", "fri", "5":
		return time.Friday, nil
	case "saturday", "sat", "6":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("invalid WEEKLY_UPDATE_DAY %q", v)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}

	return out, nil
}
