package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSeenStore_UnseenEvent(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewEventSeenStore(client)
	ctx := context.Background()

	seen, err := store.Seen(ctx, "evt_123")
	require.NoError(t, err)
	assert.False(t, seen, "fresh event should be unseen")
}

func TestEventSeenStore_MarkThenSeen(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewEventSeenStore(client)
	ctx := context.Background()

	require.NoError(t, store.MarkSeen(ctx, "evt_123", 5*time.Minute))

	seen, err := store.Seen(ctx, "evt_123")
	require.NoError(t, err)
	assert.True(t, seen, "marked event should be seen")
}

func TestEventSeenStore_MarkSeen_Idempotent(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewEventSeenStore(client)
	ctx := context.Background()

	require.NoError(t, store.MarkSeen(ctx, "evt_123", 5*time.Minute))
	require.NoError(t, store.MarkSeen(ctx, "evt_123", 5*time.Minute))

	seen, err := store.Seen(ctx, "evt_123")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestEventSeenStore_MarkExpires(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewEventSeenStore(client)
	ctx := context.Background()

	require.NoError(t, store.MarkSeen(ctx, "evt_123", 1*time.Second))

	s.FastForward(2 * time.Second)

	seen, err := store.Seen(ctx, "evt_123")
	require.NoError(t, err)
	assert.False(t, seen, "mark should expire with its TTL")
}

func TestEventSeenStore_DistinctEvents(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewEventSeenStore(client)
	ctx := context.Background()

	require.NoError(t, store.MarkSeen(ctx, "evt_a", 5*time.Minute))

	seen, err := store.Seen(ctx, "evt_b")
	require.NoError(t, err)
	assert.False(t, seen, "marking one event should not mark another")
}
