// Package reddit is a minimal script-app client: password-grant OAuth plus
// the handful of endpoints the bot needs (submit, reply, listings, mentions).
package reddit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/cfbbelt/beltbot/internal/platform/logging"
	"github.com/cfbbelt/beltbot/internal/platform/resilience"
)

const (
	defaultBaseURL = "https://oauth.reddit.com"
	defaultAuthURL = "https://www.reddit.com/api/v1/access_token"

	maxResponseBytes = 4 << 20

	// tokens are refreshed this long before reddit's declared expiry.
	tokenExpirySlack = 2 * time.Minute
)

var errRedditTransient = crerr.New("reddit transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	AuthURL        string
	ClientID       string
	ClientSecret   string
	Username       string
	Password       string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Comment is one inbound comment or mention.
type Comment struct {
	ID        string
	Fullname  string
	Author    string
	Body      string
	CreatedAt time.Time
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	authURL        string
	clientID       string
	clientSecret   string
	username       string
	password       string
	userAgent      string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time

	now func() time.Time
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
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	authURL := strings.TrimSpace(cfg.AuthURL)
	if authURL == "" {
		authURL = defaultAuthURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = "beltbot/1.0"
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		authURL:        authURL,
		clientID:       strings.TrimSpace(cfg.ClientID),
		clientSecret:   strings.TrimSpace(cfg.ClientSecret),
		username:       strings.TrimSpace(cfg.Username),
		password:       cfg.Password,
		userAgent:      userAgent,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		now:            time.Now,
	}
}

// Me returns the authenticated account name, verifying credentials work.
func (c *Client) Me(ctx context.Context) (string, error) {
	raw, err := c.call(ctx, http.MethodGet, "/api/v1/me", nil)
	if err != nil {
		return "", fmt.Errorf("fetch identity: %w", err)
	}

	var me struct {
		Name string `json:"name"`
	}
	if err := sonic.Unmarshal(raw, &me); err != nil {
		return "", crerr.Wrap(err, "decode identity response")
	}
	if me.Name == "" {
		return "", crerr.New("identity response has no name")
	}
	return me.Name, nil
}

// SubmitPost creates a self post and returns its URL.
func (c *Client) SubmitPost(ctx context.Context, subreddit, title, body string) (string, error) {
	if strings.TrimSpace(subreddit) == "" || strings.TrimSpace(title) == "" {
		return "", crerr.New("subreddit and title are required")
	}

	form := url.Values{
		"api_type": {"json"},
		"kind":     {"self"},
		"sr":       {subreddit},
		"title":    {title},
		"text":     {body},
	}

	raw, err := c.call(ctx, http.MethodPost, "/api/submit", form)
	if err != nil {
		return "", fmt.Errorf("submit post: %w", err)
	}

	var resp struct {
		JSON struct {
			Errors [][]any `json:"errors"`
			Data   struct {
				URL  string `json:"url"`
				Name string `json:"name"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return "", crerr.Wrap(err, "decode submit response")
	}
	if len(resp.JSON.Errors) > 0 {
		return "", crerr.Newf("submit rejected: %v", resp.JSON.Errors)
	}
	return resp.JSON.Data.URL, nil
}

// Reply posts a comment under the given fullname (t1_xxx or t3_xxx).
func (c *Client) Reply(ctx context.Context, parentFullname, text string) error {
	if strings.TrimSpace(parentFullname) == "" {
		return crerr.New("parent fullname is required")
	}

	form := url.Values{
		"api_type": {"json"},
		"thing_id": {parentFullname},
		"text":     {text},
	}

	raw, err := c.call(ctx, http.MethodPost, "/api/comment", form)
	if err != nil {
		return fmt.Errorf("reply to %s: %w", parentFullname, err)
	}

	var resp struct {
		JSON struct {
			Errors [][]any `json:"errors"`
		} `json:"json"`
	}
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return crerr.Wrap(err, "decode comment response")
	}
	if len(resp.JSON.Errors) > 0 {
		return crerr.Newf("reply rejected: %v", resp.JSON.Errors)
	}
	return nil
}

// NewComments lists the newest comments in a subreddit.
func (c *Client) NewComments(ctx context.Context, subreddit string, limit int) ([]Comment, error) {
	if strings.TrimSpace(subreddit) == "" {
		return nil, crerr.New("subreddit is required")
	}
	if limit <= 0 {
		limit = 25
	}

	path := "/r/" + url.PathEscape(subreddit) + "/comments.json?limit=" + strconv.Itoa(limit)
	raw, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return parseListing(raw)
}

// Mentions lists recent username mentions from the inbox.
func (c *Client) Mentions(ctx context.Context, limit int) ([]Comment, error) {
	if limit <= 0 {
		limit = 10
	}

	path := "/message/mentions.json?limit=" + strconv.Itoa(limit)
	raw, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list mentions: %w", err)
	}
	return parseListing(raw)
}

func parseListing(raw []byte) ([]Comment, error) {
	var listing struct {
		Data struct {
			Children []struct {
				Data struct {
					ID         string  `json:"id"`
					Name       string  `json:"name"`
					Author     string  `json:"author"`
					Body       string  `json:"body"`
					CreatedUTC float64 `json:"created_utc"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := sonic.Unmarshal(raw, &listing); err != nil {
		return nil, crerr.Wrap(err, "decode listing")
	}

	out := make([]Comment, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		out = append(out, Comment{
			ID:        d.ID,
			Fullname:  d.Name,
			Author:    d.Author,
			Body:      d.Body,
			CreatedAt: time.Unix(int64(d.CreatedUTC), 0).UTC(),
		})
	}
	return out, nil
}

// call runs one authenticated request with retries, returning the raw body.
func (c *Client) call(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "reddit circuit breaker rejected request",
				"state", c.breaker.State(), "path", path)
			return nil, fmt.Errorf("reddit is temporarily unavailable: %w", err)
		}
	}

	raw, err := c.execute(ctx, method, path, form)
	c.recordCircuitResult(err)
	return raw, err
}

func (c *Client) execute(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * time.Second
			c.logger.DebugContext(ctx, "retrying reddit request",
				"path", path, "attempt", attempt, "delay", delay)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		raw, retryable, err := c.doOnce(ctx, method, path, form)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, form url.Values) (_ []byte, retryable bool, _ error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, false, err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, false, crerr.Wrapf(err, "create request %s", path)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %s %s: %v", errRedditTransient, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := io.Copy(buf, io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return nil, true, fmt.Errorf("%w: read %s response: %v", errRedditTransient, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// token may have been revoked early; drop the cache and retry
		c.invalidateToken()
		return nil, true, fmt.Errorf("%w: %s %s: status=401", errRedditTransient, method, path)
	}
	if isRetryableStatus(resp.StatusCode) {
		return nil, true, fmt.Errorf("%w: %s %s: status=%d body=%s",
			errRedditTransient, method, path, resp.StatusCode, truncateForLog(buf.String(), 512))
	}
	if resp.StatusCode/100 != 2 {
		return nil, false, crerr.Newf("%s %s: status=%d body=%s",
			method, path, resp.StatusCode, truncateForLog(buf.String(), 512))
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, false, nil
}

// ensureToken returns a cached access token, fetching a fresh one via the
// password grant when the cache is empty or near expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpiry.Add(-tokenExpirySlack)) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {c.username},
		"password":   {c.password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", crerr.Wrap(err, "create token request")
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch access token: %v", errRedditTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read token response: %v", errRedditTransient, err)
	}
	if resp.StatusCode/100 != 2 {
		return "", crerr.Newf("fetch access token: status=%d body=%s",
			resp.StatusCode, truncateForLog(string(raw), 512))
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := sonic.Unmarshal(raw, &token); err != nil {
		return "", crerr.Wrap(err, "decode token response")
	}
	if token.Error != "" {
		return "", crerr.Newf("fetch access token: %s", token.Error)
	}
	if token.AccessToken == "" {
		return "", crerr.New("token response has no access_token")
	}

	expiresIn := token.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	c.accessToken = token.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(expiresIn) * time.Second)

	c.logger.Debug("reddit access token refreshed", "expires_in", expiresIn)
	return c.accessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err == nil {
		c.breaker.RecordSuccess()
		return
	}
	if crerr.Is(err, errRedditTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
