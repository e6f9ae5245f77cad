package kvcache

import (
	"sync"
	"testing"

	"github.com/nullstep/smq/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (s *captureSink) Emit(e telemetry.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func TestSessionStorePutAndGet(t *testing.T) {
	pool := NewPool(4)
	store, err := NewSessionStore(pool, 4, 1<<30, 1<<30, telemetry.NopSink{})
	require.NoError(t, err)

	c := pool.Rent(testShape(), 8)
	require.NoError(t, store.Put("session-a", c))

	got, ok := store.Get("session-a")
	require.True(t, ok)
	assert.Same(t, c, got)
}

func TestSessionStorePerSessionBudgetExceeded(t *testing.T) {
	pool := NewPool(4)
	c := pool.Rent(testShape(), 1024)
	store, err := NewSessionStore(pool, 4, 1<<30, c.SizeBytes()-1, telemetry.NopSink{})
	require.NoError(t, err)

	err = store.Put("session-a", c)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
}

func TestSessionStoreTotalBudgetEvictsOldest(t *testing.T) {
	pool := NewPool(4)
	sink := &captureSink{}
	cSize := pool.Rent(testShape(), 8).SizeBytes()
	store, err := NewSessionStore(pool, 8, cSize+1, cSize, sink)
	require.NoError(t, err)

	require.NoError(t, store.Put("a", pool.Rent(testShape(), 8)))
	require.NoError(t, store.Put("b", pool.Rent(testShape(), 8)))

	_, ok := store.Get("a")
	assert.False(t, ok, "oldest session should have been evicted on budget overflow")
	_, ok = store.Get("b")
	assert.True(t, ok)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.events, 1)
	assert.Equal(t, "KvCacheEviction", sink.events[0].Kind)
}

func TestSessionStoreMaxSessionsEvicts(t *testing.T) {
	pool := NewPool(4)
	sink := &captureSink{}
	store, err := NewSessionStore(pool, 1, 1<<30, 1<<30, sink)
	require.NoError(t, err)

	require.NoError(t, store.Put("a", pool.Rent(testShape(), 8)))
	require.NoError(t, store.Put("b", pool.Rent(testShape(), 8)))

	_, ok := store.Get("a")
	assert.False(t, ok)
}

func TestSessionStoreRemove(t *testing.T) {
	pool := NewPool(4)
	store, err := NewSessionStore(pool, 4, 1<<30, 1<<30, telemetry.NopSink{})
	require.NoError(t, err)

	require.NoError(t, store.Put("a", pool.Rent(testShape(), 8)))
	store.Remove("a")
	_, ok := store.Get("a")
	assert.False(t, ok)
}
