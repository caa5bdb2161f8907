package httpapi

import (
	"errors"
	"fmt"
)

// Kind classifies a failed request.
type Kind string

const (
	KindTransport Kind = "transport"
	KindRateLimit Kind = "rate_limit"
	KindServer    Kind = "server"
	KindClient    Kind = "client"
	KindParse     Kind = "parse"
	KindCanceled  Kind = "canceled"
)

// Error is returned by every failed request made through Client.
// Endpoint is the path of the final attempt.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Endpoint   string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTransport, KindRateLimit, KindServer:
		return true
	default:
		return false
	}
}

// IsRateLimited reports whether err is a rate limit failure.
func IsRateLimited(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindRateLimit
}

// IsRetryable reports whether err is a failure the client would retry.
func IsRetryable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Retryable()
}

// IsNotFound reports whether err is an HTTP 404 from the upstream.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindClient && apiErr.StatusCode == 404
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
