package kvcache

import "sync"

// Pool recycles Cache buffers keyed by (model shape, T_max), per spec.md
// §4.4. Rent returns a reset entry (new or reused); Return resets it and
// puts it back, subject to MaxPerKey entries retained per bucket.
type Pool struct {
	mu        sync.Mutex
	free      map[Key][]*Cache
	maxPerKey int
}

// NewPool constructs a Pool. maxPerKey bounds how many idle caches are kept
// per bucket before Return just drops the entry for the GC to collect.
func NewPool(maxPerKey int) *Pool {
	if maxPerKey <= 0 {
		maxPerKey = 4
	}
	return &Pool{free: make(map[Key][]*Cache), maxPerKey: maxPerKey}
}

// Rent returns a reset Cache for the given shape/capacity, reusing an idle
// entry from the pool when one is available.
func (p *Pool) Rent(shape Shape, tMax int) *Cache {
	key := Key{Shape: shape, TMax: tMax}

	p.mu.Lock()
	bucket := p.free[key]
	if len(bucket) > 0 {
		c := bucket[len(bucket)-1]
		p.free[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()
		c.Reset()
		return c
	}
	p.mu.Unlock()

	return newCache(shape, tMax)
}

// Return resets c and returns it to its bucket, subject to maxPerKey.
func (p *Pool) Return(c *Cache) {
	c.Reset()
	key := Key{Shape: c.shape, TMax: c.tMax}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free[key]) >= p.maxPerKey {
		return
	}
	p.free[key] = append(p.free[key], c)
}
