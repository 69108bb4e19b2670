package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Construction-time configuration errors. These are fatal: nothing
// downstream can proceed without working credentials.
var (
	// ErrMissingCredentials is returned by New when any API credential
	// is absent.
	ErrMissingCredentials = errors.New("missing API credentials")

	// ErrNoSigner is returned by New when no request signer is provided.
	ErrNoSigner = errors.New("request signer is required")
)

// ErrorClass classifies call failures for logging and metrics.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport or timeout failures.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is an expected API-level failure: a non-2xx response with
// its body preserved. Returned as a value, never panicked, keeping the
// boundary between programmer errors and expected call failures clean.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s error (status %d) on %s: %s",
		e.Class(), e.StatusCode, e.Endpoint, e.Body)
}

// Class returns the error classification for this status code.
func (e *APIError) Class() ErrorClass {
	return classifyStatus(e.StatusCode)
}

func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
