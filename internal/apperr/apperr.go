package apperr

import (
	"errors"
)

var (
	// ErrTokenInvalid covers malformed tokens and bad signatures. Fatal to the request.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is the one recoverable verification failure: the refresh
	// path may recover the identity and mint a replacement.
	ErrTokenExpired = errors.New("token expired")
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUpstream marks a completion-service failure. Retryable; the raw
	// provider error never reaches the client.
	ErrUpstream = errors.New("upstream unavailable")
)
