package redditclient

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Option configures a Client.
type Option func(*Client)

// WithCredentials switches authentication to the application-only OAuth flow
// of a registered script app.
func WithCredentials(clientID, clientSecret string) Option {
	return func(c *Client) {
		c.clientID = clientID
		c.clientSecret = clientSecret
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRateLimiter replaces the request pacer.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBaseURLs points the client at different auth and API hosts.
func WithBaseURLs(authURL, apiURL string) Option {
	return func(c *Client) {
		c.authURL = strings.TrimRight(authURL, "/")
		c.apiURL = strings.TrimRight(apiURL, "/")
	}
}

// NewClient creates a new Reddit client
func NewClient(httpClient HTTPClient, opts ...Option) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	c := &Client{
		httpClient: httpClient,
		logger:     slog.Default(),
		authURL:    DefaultAuthURL,
		apiURL:     DefaultAPIURL,
		deviceID:   uuid.New().String(),
		limiter:    NewRateLimiter(DefaultRequestsPerMinute),
		rateLimit:  100, // Start with assumed full rate limit
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseLimit = c.limiter.Limit()

	if c.clientID != "" && c.clientSecret == "" {
		return nil, fmt.Errorf("client secret is required when a client id is set")
	}
	if c.userAgent == "" {
		if c.clientID != "" {
			c.userAgent = DefaultUserAgent
		} else {
			c.userAgent = androidVersions[rand.Intn(len(androidVersions))]
		}
	}

	return c, nil
}

// NewRateLimiter paces requests evenly at the given rate with a small burst.
// A non-positive rate falls back to DefaultRequestsPerMinute.
func NewRateLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), defaultBurst)
}

// RateLimitRemaining reports the last request budget Reddit announced.
func (c *Client) RateLimitRemaining() int {
	c.rateLimitLock.RLock()
	defer c.rateLimitLock.RUnlock()
	return c.rateLimit
}

// shuffleHeaders randomizes header order for anti-fingerprinting
func (c *Client) shuffleHeaders(req *http.Request, headers map[string]string) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}

	rand.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})

	for _, k := range keys {
		if headers[k] == "" {
			continue
		}
		req.Header.Set(k, headers[k])
	}
}

// readResponseBody reads and decompresses response body if gzipped
func (c *Client) readResponseBody(resp *http.Response) ([]byte, error) {
	if !strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		return io.ReadAll(resp.Body)
	}

	var gz *gzip.Reader
	if pooled, ok := c.gzipReaderPool.Get().(*gzip.Reader); ok {
		if err := pooled.Reset(resp.Body); err != nil {
			return nil, fmt.Errorf("failed to reset gzip reader: %w", err)
		}
		gz = pooled
	} else {
		var err error
		gz, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
	}
	defer c.gzipReaderPool.Put(gz)

	return io.ReadAll(gz)
}

// ensureAuthenticated authenticates when there is no token or it is about to expire.
func (c *Client) ensureAuthenticated(ctx context.Context) error {
	if c.authenticated && (c.expiresAt.IsZero() || time.Now().Before(c.expiresAt)) {
		return nil
	}
	return c.Authenticate(ctx)
}

// makeAPIRequest handles common API request logic
func (c *Client) makeAPIRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if !c.authenticated {
		return nil, ErrNotAuthenticated
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("raw_json", "1")

	fullURL := c.apiURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	headers := map[string]string{
		"Authorization":    "Bearer " + c.accessToken,
		"User-Agent":       c.userAgent,
		"x-reddit-loid":    c.loid,
		"x-reddit-session": c.session,
		"Accept-Encoding":  "gzip",
	}

	c.shuffleHeaders(req, headers)

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	// Check for restricted content errors
	var errorResp ErrorResponse
	if json.Unmarshal(body, &errorResp) == nil && errorResp.Reason != "" {
		return c.handleRestrictedContent(req, errorResp.Reason)
	}

	if status != http.StatusOK {
		return nil, newAPIError(status, body)
	}

	return body, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	c.updateRateLimit(resp.Header)

	body, err := c.readResponseBody(resp)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// handleRestrictedContent handles gated/quarantined content
func (c *Client) handleRestrictedContent(originalReq *http.Request, reason string) ([]byte, error) {
	switch reason {
	case "gated", "quarantined":
		// Retry with cookie to accept content warning
		retry := originalReq.Clone(originalReq.Context())
		retry.Header.Set("Cookie", CONTENT_WARNING_ACCEPT_COOKIE)
		c.logger.Debug("retrying restricted content with consent cookie", "reason", reason, "url", retry.URL.Path)

		status, body, err := c.do(retry)
		if err != nil {
			return nil, fmt.Errorf("retry request failed: %w", err)
		}
		if status != http.StatusOK {
			return nil, newAPIError(status, body)
		}

		return body, nil

	case "private", "banned":
		return nil, ErrContentPrivate

	default:
		return nil, fmt.Errorf("unknown content restriction: %s", reason)
	}
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: truncate(string(body), 200)}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		apiErr.Err = ErrUnauthorized
	case http.StatusNotFound:
		apiErr.Err = ErrSubmissionNotFound
	case http.StatusTooManyRequests:
		apiErr.Err = ErrRateLimited
	}
	return apiErr
}

// updateRateLimit records Reddit's remaining budget and slows the pacer down
// when the budget runs low, spreading what is left over the reset window. The
// configured pace comes back once the budget has been refilled.
func (c *Client) updateRateLimit(header http.Header) {
	remainingStr := header.Get("x-ratelimit-remaining")
	if remainingStr == "" {
		return
	}
	remaining, err := strconv.ParseFloat(remainingStr, 64)
	if err != nil {
		c.logger.Debug("ignoring unparsable rate limit header", "value", remainingStr)
		return
	}
	reset, _ := strconv.Atoi(header.Get("x-ratelimit-reset"))

	c.rateLimitLock.Lock()
	defer c.rateLimitLock.Unlock()

	c.rateLimit = int(remaining)
	if c.rateLimit < lowRateLimitThreshold && reset > 0 {
		interval := time.Duration(reset) * time.Second / time.Duration(c.rateLimit+1)
		c.limiter.SetLimit(rate.Every(interval))
		c.logger.Debug("rate limit low, slowing down", "remaining", c.rateLimit, "reset_seconds", reset, "interval", interval)
		return
	}
	if c.rateLimit >= lowRateLimitThreshold && c.limiter.Limit() != c.baseLimit {
		c.limiter.SetLimit(c.baseLimit)
		c.logger.Debug("rate limit recovered", "remaining", c.rateLimit)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func splitScopes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ','
	})
}
