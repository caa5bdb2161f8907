package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// RetryConfig defines retry behavior for a single logical call.
// MaxRetries counts retries only, so a call makes at most MaxRetries+1 attempts.
type RetryConfig struct {
	MaxRetries      int           `yaml:"max_retries"        json:"max_retries"`
	InitialDelay    time.Duration `yaml:"initial_delay"      json:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"          json:"max_delay"`
	BackoffMultiple float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:      3,
	InitialDelay:    1 * time.Second,
	MaxDelay:        10 * time.Second,
	BackoffMultiple: 2.0,
}

// WithDefaults fills unset delay and multiplier fields from DefaultRetryConfig.
// MaxRetries is left alone; zero is a valid "never retry".
func (c RetryConfig) WithDefaults() RetryConfig {
	if c.InitialDelay == 0 {
		c.InitialDelay = DefaultRetryConfig.InitialDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = max(DefaultRetryConfig.MaxDelay, c.InitialDelay)
	}
	if c.BackoffMultiple == 0 {
		c.BackoffMultiple = DefaultRetryConfig.BackoffMultiple
	}
	return c
}

// UnmarshalYAML decodes a retry block field by field. An omitted
// max_retries takes the default; an explicit 0 is kept.
func (c *RetryConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		MaxRetries      *int          `yaml:"max_retries"`
		InitialDelay    time.Duration `yaml:"initial_delay"`
		MaxDelay        time.Duration `yaml:"max_delay"`
		BackoffMultiple float64       `yaml:"backoff_multiplier"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*c = RetryConfig{
		MaxRetries:      DefaultRetryConfig.MaxRetries,
		InitialDelay:    raw.InitialDelay,
		MaxDelay:        raw.MaxDelay,
		BackoffMultiple: raw.BackoffMultiple,
	}.WithDefaults()
	if raw.MaxRetries != nil {
		c.MaxRetries = *raw.MaxRetries
	}
	return nil
}

// Validate rejects configurations for which Delay is undefined.
func (c RetryConfig) Validate() error {
	switch {
	case c.MaxRetries < 0:
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	case c.InitialDelay <= 0:
		return fmt.Errorf("initial_delay must be > 0, got %s", c.InitialDelay)
	case c.BackoffMultiple <= 0 || math.IsNaN(c.BackoffMultiple) || math.IsInf(c.BackoffMultiple, 0):
		return fmt.Errorf("backoff_multiplier must be a positive number, got %v", c.BackoffMultiple)
	case c.MaxDelay < c.InitialDelay:
		return fmt.Errorf("max_delay (%s) must be >= initial_delay (%s)", c.MaxDelay, c.InitialDelay)
	}
	return nil
}

// Delay returns the wait before retry number attempt (0-indexed):
// min(InitialDelay * BackoffMultiple^attempt, MaxDelay).
func (c RetryConfig) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(c.InitialDelay) * math.Pow(c.BackoffMultiple, float64(attempt))
	if math.IsNaN(delay) || delay > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	if delay < 0 {
		return 0
	}
	return time.Duration(delay)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ErrorType is a coarse label for an RPC failure, used for metrics and logs.
type ErrorType string

const (
	ErrorTypeCanceled  ErrorType = "canceled"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeBlocked   ErrorType = "blocked"
	ErrorTypeRequest   ErrorType = "request"
	ErrorTypeServer    ErrorType = "server"
	ErrorTypeTransport ErrorType = "transport"
)

// ClassifyError labels an endpoint failure.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeCanceled
	}

	s := err.Error()
	sLower := strings.ToLower(s)

	// -32700: Parse error, -32600: Invalid Request, -32601: Method not found, -32602: Invalid params
	if strings.Contains(s, "-32700") || strings.Contains(s, "-32600") ||
		strings.Contains(s, "-32601") || strings.Contains(s, "-32602") {
		return ErrorTypeRequest
	}

	if strings.Contains(s, "429") || strings.Contains(sLower, "too many requests") ||
		strings.Contains(sLower, "rate limit") || strings.Contains(sLower, "quota") {
		return ErrorTypeRateLimit
	}

	if strings.Contains(s, "403") || strings.Contains(sLower, "forbidden") ||
		strings.Contains(sLower, "unauthorized") {
		return ErrorTypeBlocked
	}

	if strings.Contains(sLower, "http 5") || strings.Contains(sLower, "rpc error") {
		return ErrorTypeServer
	}

	return ErrorTypeTransport
}
