package executor

import (
	"github.com/nullstep/smq/internal/telemetry"
	"github.com/nullstep/smq/kvcache"
	"github.com/nullstep/smq/transformer"
)

// CacheHandle identifies the KV cache rented for an ExecutionContext.
type CacheHandle = *kvcache.Cache

// ExecutionContext shares model, cache, and scratch state across a
// prefill/decode call sequence for a single session. It is not safe for
// concurrent use (spec.md §5: "A session ... is not safe for concurrent
// invocations").
type ExecutionContext struct {
	Model *transformer.Model
	Pool  *kvcache.Pool
	Shape kvcache.Shape
	TMax  int
	Sink  telemetry.Sink

	// AllowPrefillReset permits calling Prefill again on a context that
	// already holds a cache, discarding the prior cache state.
	AllowPrefillReset bool
	// RequireKVCache, when true (the default), makes Decode fail with
	// ErrInvariantViolation if no cache is present.
	RequireKVCache bool

	cache           *kvcache.Cache
	position        int
	prefillDone     bool
	firstDecodeDone bool

	// decodeTokenBuf is the single-token input buffer reused by every
	// Decode call once allocated, per spec.md §4.5's steady-state budget.
	decodeTokenBuf []int

	// scratch is the forward-pass workspace (hidden state, attention, FFN
	// intermediates) reused across every Prefill/Decode call on this
	// context, so a repeated Decode at a stable shape makes zero further
	// heap allocations. It outlives Reset, since its buffer shapes depend
	// only on the model, not on session state.
	scratch *transformer.Scratch

	// decodeEventFields is reused across Decode calls to avoid allocating
	// a fresh map on every call; see Decode.
	decodeEventFields map[string]any
	// nopSink is cached so Decode can skip building decodeEventFields
	// entirely in the common case (no telemetry sink attached): boxing an
	// int64 into the any-typed map still allocates even when the map
	// itself is reused, so the only way to keep the default configuration
	// genuinely alloc-free is to not populate it at all.
	nopSink bool
}

// NewExecutionContext constructs a context bound to model, renting caches
// from pool as needed.
func NewExecutionContext(model *transformer.Model, pool *kvcache.Pool, shape kvcache.Shape, tMax int, sink telemetry.Sink) *ExecutionContext {
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	_, nop := sink.(telemetry.NopSink)
	return &ExecutionContext{
		Model: model, Pool: pool, Shape: shape, TMax: tMax, Sink: sink,
		RequireKVCache:    true,
		decodeTokenBuf:    make([]int, 1),
		scratch:           transformer.NewScratch(),
		decodeEventFields: make(map[string]any, 2),
		nopSink:           nop,
	}
}

// Cache returns the context's current cache handle, or nil if none is set.
func (ec *ExecutionContext) Cache() CacheHandle { return ec.cache }

// Position reports the next absolute position Decode would write to.
func (ec *ExecutionContext) Position() int { return ec.position }

// Reset releases the context's cache back to the pool and clears state, so
// the context can be reused for a fresh prefill.
func (ec *ExecutionContext) Reset() {
	if ec.cache != nil {
		ec.Pool.Return(ec.cache)
		ec.cache = nil
	}
	ec.position = 0
	ec.prefillDone = false
	ec.firstDecodeDone = false
}
