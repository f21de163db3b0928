package discord

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingCode is returned when an authorization code is empty.
	ErrMissingCode = errors.New("missing authorization code")
	// ErrMissingRefreshToken is returned when a refresh token is empty.
	ErrMissingRefreshToken = errors.New("missing refresh token")
)

// ExchangeError is a non-2xx answer from the token endpoint.
type ExchangeError struct {
	// Action is what was attempted, e.g. "fetch access token".
	Action     string
	StatusCode int
	// Status is the full status line text, e.g. "400 Bad Request".
	Status string
	// Payload holds the compacted JSON error body when the body was JSON.
	Payload []byte
	// Body is the raw response body.
	Body []byte
}

func (e *ExchangeError) Error() string {
	detail := e.detail()
	if detail == "" {
		return fmt.Sprintf("failed to %s: %s", e.Action, e.Status)
	}
	return fmt.Sprintf("failed to %s: %s %s", e.Action, e.Status, detail)
}

func (e *ExchangeError) detail() string {
	if len(e.Payload) > 0 {
		return string(e.Payload)
	}
	return strings.TrimSpace(string(e.Body))
}

// DecodeError is a 2xx answer whose body is not a complete token response.
type DecodeError struct {
	Action string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to %s: invalid token response: %v", e.Action, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
