package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed completion
type ErrorKind string

const (
	KindTimeout         ErrorKind = "timeout"
	KindRateLimited     ErrorKind = "rate_limited"
	KindMalformedOutput ErrorKind = "malformed_output"
	KindProviderError   ErrorKind = "provider_error"
)

// Retryable reports whether another attempt may succeed
func (k ErrorKind) Retryable() bool {
	return k == KindTimeout || k == KindRateLimited || k == KindProviderError
}

// Error is the only error type returned by Client.Complete
type Error struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("llm %s (%s): %v", e.Kind, e.Provider, e.Err)
	}
	return fmt.Sprintf("llm %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// KindOf extracts the kind of err. Context deadlines count as timeouts;
// anything unclassified is a provider error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	return KindProviderError
}

// KindFromStatus maps an HTTP status from a provider API to an error kind
func KindFromStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindProviderError
	}
}

// classify wraps err into an *Error, keeping an existing classification
func classify(provider string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		if e.Provider == "" {
			e.Provider = provider
		}
		return e
	}
	return NewError(KindOf(err), provider, err)
}
