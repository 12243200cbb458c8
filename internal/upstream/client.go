// Package upstream is the HTTP client shared by every provider adapter. It
// applies a per-provider rate limit and a per-request timeout, and turns
// transport failures, non-2xx statuses and undecodable bodies into the
// domain error kinds.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

const (
	// DefaultTimeout bounds a single outbound request.
	DefaultTimeout = 8 * time.Second

	// DefaultRateLimit is requests per second per provider.
	DefaultRateLimit = 10

	userAgent   = "public-data-proxy/1.0"
	maxErrorLen = 512
)

// Client issues rate-limited requests to one provider.
type Client struct {
	provider   string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
	headers    http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (its Timeout applies per request).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets requests per second; a non-positive value disables limiting.
func WithRateLimit(perSecond int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// New creates a client for provider.
func New(provider string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		provider:   provider,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		metrics:    metrics,
		logger:     logger,
		headers:    http.Header{"User-Agent": {userAgent}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider names the upstream this client talks to.
func (c *Client) Provider() string { return c.provider }

// Get fetches url and returns the body. unit names the unit of work (a year,
// a date, a ticker) for error messages.
func (c *Client) Get(ctx context.Context, unit, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return c.do(req, unit)
}

// GetJSON fetches url and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, unit, url string, v any) error {
	body, err := c.Get(ctx, unit, url, "application/json")
	if err != nil {
		return err
	}
	return c.decode(body, v)
}

// PostJSON sends payload as JSON and decodes the JSON response into v.
func (c *Client) PostJSON(ctx context.Context, unit, url string, payload, v any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", c.provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, unit)
	if err != nil {
		return err
	}
	return c.decode(body, v)
}

func (c *Client) do(req *http.Request, unit string) ([]byte, error) {
	ctx := req.Context()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s %s: rate limit wait: %w", c.provider, unit, err)
	}
	for k, vs := range c.headers {
		if req.Header.Get(k) == "" {
			req.Header[k] = vs
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(c.provider, "error").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("%s %s: %w", c.provider, unit, ctxErr)
		}
		return nil, fmt.Errorf("%s %s: %w: %w", c.provider, unit, domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(c.provider, "error").Inc()
		return nil, fmt.Errorf("%s %s: read body: %w: %w", c.provider, unit, domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome := "error"
		if resp.StatusCode == http.StatusNotFound {
			outcome = "not_found"
		}
		c.metrics.UpstreamRequests.WithLabelValues(c.provider, outcome).Inc()
		c.logger.Debug("upstream non-2xx",
			"provider", c.provider,
			"unit", unit,
			"status", resp.StatusCode,
		)
		return nil, &domain.StatusError{
			Provider:   c.provider,
			Unit:       unit,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), maxErrorLen),
		}
	}

	c.metrics.UpstreamRequests.WithLabelValues(c.provider, "success").Inc()
	return body, nil
}

func (c *Client) decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return domain.Malformed(c.provider, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
