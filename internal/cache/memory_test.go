package cache

import (
	"context"
	"testing"
	"time"

	"github.com/straye-as/finance-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sample struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "dashboard:all", sample{Count: 3, Total: 1500.5}, time.Minute))

	var got sample
	found, err := c.Get(ctx, "dashboard:all", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Count: 3, Total: 1500.5}, got)

	found, err = c.Get(ctx, "dashboard:missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", sample{Count: 1}, time.Minute))
	now = now.Add(2 * time.Minute)

	var got sample
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "dashboard:week", sample{}, 0))
	require.NoError(t, c.Set(ctx, "dashboard:month", sample{}, 0))
	require.NoError(t, c.Set(ctx, "other", sample{}, 0))

	require.NoError(t, c.DeletePrefix(ctx, "dashboard:"))

	var got sample
	found, _ := c.Get(ctx, "dashboard:week", &got)
	assert.False(t, found)
	found, _ = c.Get(ctx, "other", &got)
	assert.True(t, found)
}

func TestNew_SelectsBackend(t *testing.T) {
	c, err := New(&config.CacheConfig{Mode: "memory"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	c, err = New(&config.CacheConfig{Mode: "none"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, c)

	_, err = New(&config.CacheConfig{Mode: "memcached"}, zap.NewNop())
	assert.Error(t, err)
}
