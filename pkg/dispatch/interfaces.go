// Package dispatch contains the public contracts for resolving a user's push
// destination and delivering a notification to it.
package dispatch

import (
	"context"
	"errors"

	"github.com/tinywideclouds/go-platform/pkg/notification/v1"
)

// Outcome classifies a single delivery attempt.
type Outcome int

const (
	// Delivered means the push service accepted the message.
	Delivered Outcome = iota
	// TokenUnregistered means the destination token is permanently dead
	// (app uninstalled, token rotated). Expected, not an error.
	TokenUnregistered
	// Failed means a transient or unknown delivery failure.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case TokenUnregistered:
		return "token_unregistered"
	default:
		return "failed"
	}
}

// Dispatcher sends notification content to a single platform-specific token.
// Delivery is best-effort and at-most-once; the dispatcher never retries.
type Dispatcher interface {
	Dispatch(ctx context.Context, token string, content notification.NotificationContent, data map[string]string) (Outcome, error)
}

// Expected-absence results from the profile store. Callers treat these as
// normal, non-fatal conditions; anything else is a hard failure.
var (
	ErrProfileNotFound = errors.New("user profile not found")
	ErrNoToken         = errors.New("no token registered for user")
)

// ProfileStore manages the push-destination token on a user's profile.
type ProfileStore interface {
	// FetchToken performs a point lookup of the user's current token.
	// Returns ErrProfileNotFound or ErrNoToken for the expected absences.
	FetchToken(ctx context.Context, userID string) (string, error)

	// SaveToken overwrites the user's token (upsert).
	SaveToken(ctx context.Context, userID string, token string) error

	// ClearToken removes the token from the profile, e.g. after the push
	// service reports it as unregistered.
	ClearToken(ctx context.Context, userID string) error
}

// TokenCache is a TTL'd userID -> token cache in front of the ProfileStore.
// Implementations must treat an expired entry as absent, never returning it.
type TokenCache interface {
	Get(ctx context.Context, userID string) (string, bool)
	Put(ctx context.Context, userID string, token string)
	Forget(ctx context.Context, userID string)
}

// TokenResolver returns a valid destination token for a user, or ok=false
// when the user has none (missing profile or no registered token). The error
// channel is reserved for hard failures such as store connectivity.
type TokenResolver interface {
	Resolve(ctx context.Context, userID string) (token string, ok bool, err error)
}
