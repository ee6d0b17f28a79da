// Package cache provides the TTL'd token caches that sit in front of the
// user-profile store.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	token  string
	expiry time.Time
}

// MemoryCache is an in-process dispatch.TokenCache. Entries expire on read:
// a stale entry is never returned, but it is not proactively purged either —
// it is simply overwritten by the next Put. Concurrent Puts for the same user
// are last-writer-wins, which is fine because the value is advisory and
// re-derivable from the profile store.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration

	// now is swapped out in tests to drive expiry.
	now func() time.Time
}

// NewMemoryCache creates a cache whose entries live for ttl from write time.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, userID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[userID]
	if !found || !c.now().Before(e.expiry) {
		return "", false
	}
	return e.token, true
}

func (c *MemoryCache) Put(_ context.Context, userID string, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = entry{token: token, expiry: c.now().Add(c.ttl)}
}

func (c *MemoryCache) Forget(_ context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}
