package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

var (
	// ErrUnauthorized is returned by the platform API for a revoked or unknown token.
	ErrUnauthorized = errors.New("platform: unauthorized")
	// ErrForbidden is returned when the bot is not allowed to act on the target chat.
	ErrForbidden = errors.New("platform: forbidden")

	ErrNotAToken              = errors.New("malformed bot token")
	ErrWebhookNotAcknowledged = errors.New("webhook was not acknowledged by the platform")
	ErrRevokeLimitExceeded    = fmt.Errorf("more than %d conflicting bots to revoke", MaxBulkRevocations)
	ErrMasterExists           = errors.New("a master bot is already registered")
	ErrLinkExhausted          = errors.New("could not mint an unused share link")
	ErrConflict               = errors.New("unique constraint violated")
	ErrUnsupportedContent     = errors.New("unsupported message content")
)

// APIError is a non-ok platform response that is not an auth failure.
type APIError struct {
	Method      string
	StatusCode  int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform %s: %d %s", e.Method, e.StatusCode, e.Description)
}
