package kvcache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nullstep/smq/internal/telemetry"
)

// entry pairs a rented Cache with its byte footprint, so SessionStore can
// track total occupancy without re-walking every cache on each insert.
type entry struct {
	cache     *Cache
	sizeBytes int64
}

// SessionStore is the per-session LRU budget enforcer described in
// spec.md §4.4/§4.7: entry count is capped by maxSessions (enforced by the
// underlying LRU itself), and total occupied bytes is capped by totalMax
// (enforced here, evicting the least-recently-used session first). Every
// eviction — whether triggered by count or by bytes — emits a
// KvCacheEviction telemetry event.
type SessionStore struct {
	mu            sync.Mutex
	lru           *lru.Cache[string, *entry]
	pool          *Pool
	totalBytes    int64
	totalMax      int64
	perSessionMax int64
	sink          telemetry.Sink
}

// NewSessionStore constructs a store backed by pool for cache reuse.
// maxSessions bounds entry count; totalMax bounds aggregate bytes across all
// sessions; perSessionMax bounds a single session's cache (spec.md:
// "size_bytes <= per_session_max", else BudgetExceeded(KvCachePerSession)).
func NewSessionStore(pool *Pool, maxSessions int, totalMax, perSessionMax int64, sink telemetry.Sink) (*SessionStore, error) {
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	s := &SessionStore{pool: pool, totalMax: totalMax, perSessionMax: perSessionMax, sink: sink}

	l, err := lru.NewWithEvict[string, *entry](maxSessions, func(sessionID string, e *entry) {
		s.onEvicted(sessionID, e)
	})
	if err != nil {
		return nil, fmt.Errorf("kvcache: new session store: %w", err)
	}
	s.lru = l
	return s, nil
}

// onEvicted is invoked by the LRU itself for every removal: its own
// count-based eviction inside Add, the RemoveOldest calls Put makes for
// byte-budget eviction, and Remove. It returns the evicted cache to the
// pool and emits telemetry. Caller must hold s.mu.
func (s *SessionStore) onEvicted(sessionID string, e *entry) {
	s.totalBytes -= e.sizeBytes
	s.pool.Return(e.cache)
	s.sink.Emit(telemetry.Event{
		Kind: "KvCacheEviction",
		Fields: map[string]any{
			"session_id": sessionID,
			"size_bytes": e.sizeBytes,
		},
	})
}

// Put registers a session's cache, evicting other sessions (oldest first)
// if needed to stay within totalMax. Returns ErrBudgetExceeded if the
// session's own cache alone exceeds perSessionMax.
//
// All eviction accounting (totalBytes subtraction, pool.Return, the
// KvCacheEviction event) happens exactly once, inside onEvicted, which the
// LRU invokes itself for every removal it performs (RemoveOldest here, or
// its own count-based eviction inside Add). Put never calls onEvicted or
// lru.Remove directly: replacing sessionID's own entry is an update, not an
// eviction, so it is folded into the totalBytes delta below instead.
func (s *SessionStore) Put(sessionID string, c *Cache) error {
	size := c.SizeBytes()
	if s.perSessionMax > 0 && size > s.perSessionMax {
		return fmt.Errorf("%w: %d > %d", ErrBudgetExceeded, size, s.perSessionMax)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var oldSize int64
	if old, ok := s.lru.Peek(sessionID); ok {
		oldSize = old.sizeBytes
	}

	for s.totalMax > 0 && s.totalBytes-oldSize+size > s.totalMax {
		oldestKey, _, ok := s.lru.GetOldest()
		if !ok || oldestKey == sessionID {
			// Nothing left to evict but sessionID's own (not yet updated)
			// entry; evicting it here would return the live cache to the
			// pool out from under the caller. Let the budget check below
			// reject the Put instead.
			break
		}
		s.lru.RemoveOldest()
	}
	if s.totalMax > 0 && s.totalBytes-oldSize+size > s.totalMax {
		return fmt.Errorf("%w: total budget", ErrBudgetExceeded)
	}

	s.lru.Add(sessionID, &entry{cache: c, sizeBytes: size})
	s.totalBytes += size - oldSize
	return nil
}

// Get returns the cache for sessionID, marking it most-recently-used.
func (s *SessionStore) Get(sessionID string) (*Cache, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lru.Get(sessionID)
	if !ok {
		return nil, false
	}
	return e.cache, true
}

// Remove evicts sessionID explicitly (e.g. on session close), returning its
// cache to the pool. Accounting is handled entirely by onEvicted, which
// lru.Remove invokes itself when sessionID is present.
func (s *SessionStore) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Remove(sessionID)
}

// TotalBytes reports current aggregate occupancy across all sessions.
func (s *SessionStore) TotalBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalBytes
}
