package analysis

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the server answered with an empty or
// whitespace-only body.
var ErrEmptyResponse = errors.New("empty response from server")

// TransportError means the HTTP call itself did not complete.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError carries a non-2xx status and the raw body that came with it.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	body := e.Body
	if body == "" {
		body = "Unknown error"
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// DecodeError means the body was non-empty but not valid JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid JSON response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
