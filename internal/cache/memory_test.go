package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory(clockwork.NewFakeClock())
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))

	val, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestMemoryExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewMemory(clock)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))

	clock.Advance(59 * time.Second)
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok, "expired entry must read as absent")
}

func TestMemoryValueIsCopied(t *testing.T) {
	m := NewMemory(clockwork.NewFakeClock())
	ctx := context.Background()

	buf := []byte("original")
	require.NoError(t, m.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'X'

	val, _, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("original"), val)
}

func TestMemoryDeleteByPrefix(t *testing.T) {
	m := NewMemory(clockwork.NewFakeClock())
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "app:a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "app:b", []byte("2"), time.Minute))
	require.NoError(t, m.Set(ctx, "other:c", []byte("3"), time.Minute))

	require.NoError(t, m.DeleteByPrefix(ctx, "app:"))

	_, ok, _ := m.Get(ctx, "app:a")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "other:c")
	assert.True(t, ok)
}

func TestMemoryEvictExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewMemory(clock)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "long", []byte("2"), time.Hour))

	clock.Advance(time.Minute)

	assert.Equal(t, 1, m.EvictExpired())
	assert.Equal(t, 1, m.Size())
}
