package engine

import (
	"github.com/nullstep/smq/executor"
	"github.com/nullstep/smq/internal/telemetry"
	"github.com/nullstep/smq/kernel"
	"github.com/nullstep/smq/kvcache"
	"github.com/nullstep/smq/session"
	"github.com/nullstep/smq/tokenizer"
)

// Engine is the long-lived embedding-API handle returned by New
// (spec.md §6.3's create_engine). It owns the shared KV cache pool and
// session store every CreateSession call draws from, so multiple
// concurrent sessions stay within one process-wide memory budget.
type Engine struct {
	opts         EngineOptions
	sink         telemetry.Sink
	kernelConfig kernel.Config

	pool  *kvcache.Pool
	store *kvcache.SessionStore
}

// New constructs an Engine (spec.md §6.3's create_engine(options)). sink
// may be nil, in which case telemetry is discarded.
func New(opts EngineOptions, kernelConfig kernel.Config, sink telemetry.Sink) (*Engine, error) {
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	if opts.PoolCachesPerKey <= 0 {
		opts.PoolCachesPerKey = DefaultEngineOptions().PoolCachesPerKey
	}

	pool := kvcache.NewPool(opts.PoolCachesPerKey)

	var store *kvcache.SessionStore
	if opts.MaxSessions > 0 {
		s, err := kvcache.NewSessionStore(pool, opts.MaxSessions, opts.TotalKVCacheMax, 0, sink)
		if err != nil {
			return nil, err
		}
		store = s
	}

	return &Engine{opts: opts, sink: sink, kernelConfig: kernelConfig, pool: pool, store: store}, nil
}

// CreateSession builds a Session bound to a loaded model
// (spec.md §6.3's Engine::create_session). EnableKVCache=false still
// allocates an executor.ExecutionContext (the forward pass always needs
// somewhere to keep attention state within a single turn) but leaves the
// session store untouched, so the cache is discarded on Reset and never
// counted against a shared budget.
func (e *Engine) CreateSession(h ModelHandle, opts SessionOptions) (*session.Session, error) {
	if h.Model == nil {
		return nil, ErrModelNotLoaded
	}

	policy, err := opts.contextPolicy()
	if err != nil {
		return nil, err
	}

	tok, err := tokenizer.New(h.Metadata.Tokenizer, e.sink)
	if err != nil {
		return nil, err
	}

	shape := kvcache.Shape{
		Layers:  h.Model.Shape.Layers,
		KVHeads: h.Model.Shape.KVHeads,
		HeadDim: h.Model.Shape.HeadDim,
	}
	tMax := opts.cacheTMax(h.Model.Shape.ContextMax)

	ec := executor.NewExecutionContext(h.Model, e.pool, shape, tMax, e.sink)

	var store *kvcache.SessionStore
	perSessionMax := opts.perSessionMaxBytes()
	if opts.EnableKVCache {
		store = e.store
	}

	eos := -1
	if id, ok := tok.EOSToken(); ok {
		eos = id
	}

	sess := session.New(opts.SessionID, ec, tok, opts.samplerOptions(eos), store, perSessionMax, policy, e.sink)
	return sess, nil
}
