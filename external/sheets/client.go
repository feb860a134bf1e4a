package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/cfbbelt/beltbot/internal/domain/game"
	"github.com/cfbbelt/beltbot/internal/domain/schedule"
	"github.com/cfbbelt/beltbot/internal/domain/school"
	"github.com/cfbbelt/beltbot/internal/platform/logging"
	"github.com/cfbbelt/beltbot/internal/platform/resilience"
)

const maxResponseBytes = 16 << 20

var errSheetsTransient = crerr.New("sheets transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	GamesURL       string
	ScheduleURL    string
	SchoolsURL     string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches the published belt tables (games, schedule, schools) as CSV.
type Client struct {
	httpClient     *http.Client
	gamesURL       string
	scheduleURL    string
	schoolsURL     string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		gamesURL:       strings.TrimSpace(cfg.GamesURL),
		scheduleURL:    strings.TrimSpace(cfg.ScheduleURL),
		schoolsURL:     strings.TrimSpace(cfg.SchoolsURL),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) FetchGames(ctx context.Context) ([]game.Game, error) {
	table, err := c.fetchCSV(ctx, c.gamesURL)
	if err != nil {
		return nil, fmt.Errorf("fetch games: %w", err)
	}
	return parseGames(table)
}

func (c *Client) FetchSchedule(ctx context.Context) ([]schedule.Game, error) {
	table, err := c.fetchCSV(ctx, c.scheduleURL)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}
	return parseSchedule(table)
}

func (c *Client) FetchSchools(ctx context.Context) ([]school.School, error) {
	table, err := c.fetchCSV(ctx, c.schoolsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch schools: %w", err)
	}
	return parseSchools(table)
}

func (c *Client) fetchCSV(ctx context.Context, url string) (csvTable, error) {
	if url == "" {
		return csvTable{}, crerr.New("sheet url is not configured")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sheets circuit breaker rejected request", "state", c.breaker.State())
			return csvTable{}, fmt.Errorf("belt data source is temporarily unavailable: %w", err)
		}
	}

	out, err, _ := c.flight.Do(url, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, url)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errSheetsTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return csvTable{}, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return csvTable{}, fmt.Errorf("unexpected response payload type %T", out)
	}

	return parseCSV(raw)
}

func (c *Client) executeRequest(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "text/csv")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = crerr.Wrapf(errSheetsTransient, "send request: %v", err)
		} else {
			buf := bytebufferpool.Get()
			_, readErr := io.Copy(buf, io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Wrapf(errSheetsTransient, "read response body: %v", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				// the buffer goes back to the pool, so hand out a stable copy
				raw := append([]byte(nil), buf.B...)
				bytebufferpool.Put(buf)
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Wrapf(errSheetsTransient, "sheet status=%d", resp.StatusCode)
			default:
				bytebufferpool.Put(buf)
				return nil, fmt.Errorf("sheet status=%d", resp.StatusCode)
			}
			bytebufferpool.Put(buf)
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("sheet request failed")
	}
	c.logger.WarnContext(ctx, "sheets request failed", "url", url, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
