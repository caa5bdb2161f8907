// Package httpapi is a retrying JSON client for third-party data APIs.
//
// Every request is a GET against one fixed base URL. Transport failures,
// 429 and 5xx responses are retried with exponential backoff; any other
// non-2xx status and undecodable bodies fail immediately.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vietddude/tradedesk/internal/infra/rpc/routing"
	"github.com/vietddude/tradedesk/internal/metrics"
)

const maxBodySize = 8 << 20

// Client performs GET requests against a single base URL. It holds no state
// between calls besides the optional rate limiter.
type Client struct {
	name       string
	baseURL    string
	headers    http.Header
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      routing.RetryConfig
	sleep      func(ctx context.Context, d time.Duration) error
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithRetry overrides the retry settings.
func WithRetry(cfg routing.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithRateLimit paces requests to rps per second. Zero disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for retry events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client for baseURL. name labels logs and metrics.
func New(name, baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		headers:    make(http.Header),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      routing.DefaultRetryConfig,
		sleep:      routing.Sleep,
		log:        slog.Default(),
	}
	c.headers.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(c)
	}
	if err := c.retry.Validate(); err != nil {
		return nil, fmt.Errorf("%s client: %w", name, err)
	}
	c.log = c.log.With("component", "httpapi", "provider", name)
	return c, nil
}

// Name returns the provider name the client was built with.
func (c *Client) Name() string {
	return c.name
}

// Get performs a GET and decodes the JSON body into T.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	body, err := c.Do(ctx, path, query)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		metrics.APIRequestsTotal.WithLabelValues(c.name, path, string(KindParse)).Inc()
		return out, &Error{
			Kind:     KindParse,
			Message:  "invalid response body",
			Endpoint: path,
			Err:      err,
		}
	}
	return out, nil
}

// Do performs a GET with retries and returns the raw 2xx body.
func (c *Client) Do(ctx context.Context, path string, query url.Values) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, &Error{Kind: KindCanceled, Message: "request canceled", Endpoint: path, Err: err}
			}
		}

		body, err := c.once(ctx, path, query)
		if err == nil {
			return body, nil
		}

		var apiErr *Error
		if !errors.As(err, &apiErr) || !apiErr.Retryable() || attempt >= c.retry.MaxRetries {
			if attempt > 0 {
				c.log.Warn("Request failed after retries", "path", path, "attempts", attempt+1, "error", err)
			}
			return nil, err
		}

		delay := c.retry.Delay(attempt)
		metrics.APIRetriesTotal.WithLabelValues(c.name, string(apiErr.Kind)).Inc()
		c.log.Debug("Retrying request",
			"path", path,
			"attempt", attempt+1,
			"delay", delay,
			"reason", apiErr.Kind,
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, &Error{Kind: KindCanceled, Message: "request canceled", Endpoint: path, Err: err}
		}
	}
}

func (c *Client) once(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Kind: KindClient, Message: "build request", Endpoint: path, Err: err}
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APILatency.WithLabelValues(c.name, path).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.record(path, KindCanceled)
			return nil, &Error{Kind: KindCanceled, Message: "request canceled", Endpoint: path, Err: ctxErr}
		}
		c.record(path, KindTransport)
		return nil, &Error{Kind: KindTransport, Message: "transport error", Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.record(path, KindRateLimit)
		return nil, &Error{
			Kind:       KindRateLimit,
			Message:    "rate limit exceeded",
			StatusCode: resp.StatusCode,
			Endpoint:   path,
		}
	case resp.StatusCode >= 500:
		c.record(path, KindServer)
		return nil, &Error{
			Kind:       KindServer,
			Message:    fmt.Sprintf("server error: HTTP %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Endpoint:   path,
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.record(path, KindClient)
		return nil, &Error{
			Kind:       KindClient,
			Message:    fmt.Sprintf("request failed: HTTP %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Endpoint:   path,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &Error{Kind: KindCanceled, Message: "request canceled", Endpoint: path, Err: ctxErr}
		}
		c.record(path, KindTransport)
		return nil, &Error{Kind: KindTransport, Message: "read body", Endpoint: path, Err: err}
	}
	c.record(path, "ok")
	return body, nil
}

func (c *Client) record(path string, outcome Kind) {
	metrics.APIRequestsTotal.WithLabelValues(c.name, path, string(outcome)).Inc()
}
