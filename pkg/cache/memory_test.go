package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Symbol string  `json:"symbol"`
	IV     float64 `json:"iv"`
}

func TestMemoryCache_SetGetStruct(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "vol:AAPL", sample{Symbol: "AAPL", IV: 42.5}, time.Minute))

	var got sample
	require.NoError(t, mc.Get(ctx, "vol:AAPL", &got))
	assert.Equal(t, sample{Symbol: "AAPL", IV: 42.5}, got)

	var s string
	require.NoError(t, mc.Set(ctx, "plain", "hello", 0))
	require.NoError(t, mc.Get(ctx, "plain", &s))
	assert.Equal(t, "hello", s)
}

func TestMemoryCache_MissAndExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	var got sample
	assert.ErrorIs(t, mc.Get(ctx, "absent", &got), ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "short", sample{Symbol: "X"}, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	assert.ErrorIs(t, mc.Get(ctx, "short", &got), ErrCacheMiss)

	ok, err := mc.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_MGetTyped(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.MSet(ctx, map[string]interface{}{
		"a": sample{Symbol: "A", IV: 1},
		"b": sample{Symbol: "B", IV: 2},
	}, time.Minute))

	got, err := MGetTyped[sample](ctx, mc, "a", "b", "c")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2.0, got["b"].IV)
}

func TestMemoryCache_TryLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "scan:lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mc.TryLock(ctx, "scan:lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mc.Unlock(ctx, "scan:lock"))
	ok, err = mc.TryLock(ctx, "scan:lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_EvictsOldest(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k1", "1", 0))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "k2", "2", 0))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "k3", "3", 0))

	ok, _ := mc.Exists(ctx, "k1")
	assert.False(t, ok)
	ok, _ = mc.Exists(ctx, "k3")
	assert.True(t, ok)
}

func TestMemoryCache_ZeroCleanupUsesDefault(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "c", 3, time.Minute))

	var n int
	assert.ErrorIs(t, mc.Get(ctx, "a", &n), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "c", &n))
	assert.Equal(t, 3, n)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "scan:latest", GenerateKey("scan", "latest"))
	assert.Equal(t, "vol:2025-03-10:AAPL", GenerateKeyWithParams("vol", "2025-03-10", "AAPL"))
}
