// Package resolver turns a user ID into a push-destination token, with a
// read-aside TTL cache in front of the profile store.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinywideclouds/go-task-notification-service/pkg/dispatch"
)

// Resolver implements dispatch.TokenResolver. The cache is constructor-
// injected so tests can build isolated instances; it is the only state the
// resolver owns.
type Resolver struct {
	cache    dispatch.TokenCache
	profiles dispatch.ProfileStore
	logger   *slog.Logger
}

func New(cache dispatch.TokenCache, profiles dispatch.ProfileStore, logger *slog.Logger) *Resolver {
	return &Resolver{
		cache:    cache,
		profiles: profiles,
		logger:   logger.With("component", "TokenResolver"),
	}
}

// Resolve returns the user's token, consulting the cache first and falling
// back to a point read of the profile store on a miss. A cached token is
// served as-is for its lifetime, even if the store has changed underneath.
// Missing profile and missing token are expected absences (ok=false, nil
// error); only store connectivity failures escape on the error channel.
//
// Two concurrent resolves for the same user may both miss and both re-fetch.
// That is acceptable: the store is the source of truth and the resulting Puts
// are idempotent overwrites.
func (r *Resolver) Resolve(ctx context.Context, userID string) (string, bool, error) {
	if token, hit := r.cache.Get(ctx, userID); hit {
		return token, true, nil
	}

	token, err := r.profiles.FetchToken(ctx, userID)
	switch {
	case errors.Is(err, dispatch.ErrProfileNotFound):
		r.logger.Warn("User profile not found", "user_id", userID)
		return "", false, nil
	case errors.Is(err, dispatch.ErrNoToken):
		r.logger.Info("User has no registered token", "user_id", userID)
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("token lookup for %s failed: %w", userID, err)
	}

	r.cache.Put(ctx, userID, token)
	return token, true, nil
}

// Evict drops the cached entry for a user, forcing the next Resolve back to
// the profile store. Used after the push service reports a dead token.
func (r *Resolver) Evict(ctx context.Context, userID string) {
	r.cache.Forget(ctx, userID)
}
