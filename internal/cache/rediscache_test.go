package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tinywideclouds/go-task-notification-service/internal/cache"
)

// --- Mocks ---
type MockCacheClient struct {
	mock.Mock
}

func (m *MockCacheClient) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
func (m *MockCacheClient) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}
func (m *MockCacheClient) Del(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	ttl := 5 * time.Minute

	t.Run("Get hit", func(t *testing.T) {
		client := new(MockCacheClient)
		c := cache.NewRedisCache(client, ttl, newTestLogger())

		client.On("Get", ctx, "notify:token:u1").Return("tok1", nil)

		token, hit := c.Get(ctx, "u1")
		assert.True(t, hit)
		assert.Equal(t, "tok1", token)
		client.AssertExpectations(t)
	})

	t.Run("Redis error reads as miss", func(t *testing.T) {
		client := new(MockCacheClient)
		c := cache.NewRedisCache(client, ttl, newTestLogger())

		client.On("Get", ctx, "notify:token:u1").Return("", assert.AnError)

		_, hit := c.Get(ctx, "u1")
		assert.False(t, hit)
	})

	t.Run("Put stores with TTL", func(t *testing.T) {
		client := new(MockCacheClient)
		c := cache.NewRedisCache(client, ttl, newTestLogger())

		client.On("Set", ctx, "notify:token:u1", "tok1", ttl).Return(nil)

		c.Put(ctx, "u1", "tok1")
		client.AssertExpectations(t)
	})

	t.Run("Put failure is swallowed", func(t *testing.T) {
		client := new(MockCacheClient)
		c := cache.NewRedisCache(client, ttl, newTestLogger())

		client.On("Set", ctx, "notify:token:u1", "tok1", ttl).Return(assert.AnError)

		// Must not panic or surface the error; caching is best-effort.
		c.Put(ctx, "u1", "tok1")
	})

	t.Run("Forget deletes the key", func(t *testing.T) {
		client := new(MockCacheClient)
		c := cache.NewRedisCache(client, ttl, newTestLogger())

		client.On("Del", ctx, "notify:token:u1").Return(nil)

		c.Forget(ctx, "u1")
		client.AssertExpectations(t)
	})
}
