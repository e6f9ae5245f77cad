package engine

import (
	"github.com/nullstep/smq/sampler"
	"github.com/nullstep/smq/session"
)

// SessionOptions matches the key list in spec.md §6.3 exactly: this is the
// argument to Engine.CreateSession. Pointer fields are the "?"-suffixed
// optional keys; everything else carries the documented default via
// DefaultSessionOptions.
type SessionOptions struct {
	SessionID string

	EnableKVCache     bool
	MaxKVCacheTokens  *int
	PerSessionKVBytes *int64

	MaxNewTokens      int
	Temperature       float32
	TopK              int
	TopP              float32
	RepetitionPenalty float32
	RepetitionWindow  int
	Seed              *uint64
	StopSequences     []string
	ContextPolicy     string // "keep_all" | "keep_last_n_turns" | "sliding_window"
	ContextPolicyN    int    // KeepLastNTurnsPolicy.N
	ContextPolicyMax  int    // SlidingWindowPolicy.MaxTokens

	TimeoutMS     *int64
	Deterministic bool
}

// DefaultSessionOptions matches spec.md §6.3's documented defaults:
// enable_kv_cache=true, max_new_tokens=128, temperature=0.8, top_k=40,
// top_p=0.95, repetition_penalty=1.0, repetition_window=64,
// deterministic=false.
func DefaultSessionOptions() SessionOptions {
	d := session.DefaultOptions()
	return SessionOptions{
		EnableKVCache:     true,
		MaxNewTokens:      d.MaxNewTokens,
		Temperature:       d.Temperature,
		TopK:              d.TopK,
		TopP:              d.TopP,
		RepetitionPenalty: d.RepetitionPenalty,
		RepetitionWindow:  d.RepetitionWindow,
		ContextPolicy:     "keep_all",
	}
}

// contextPolicy resolves the enum key to a session.ContextPolicy value.
func (o SessionOptions) contextPolicy() (session.ContextPolicy, error) {
	switch o.ContextPolicy {
	case "", "keep_all":
		return session.KeepAllPolicy{}, nil
	case "keep_last_n_turns":
		n := o.ContextPolicyN
		if n <= 0 {
			n = 1
		}
		return session.KeepLastNTurnsPolicy{N: n}, nil
	case "sliding_window":
		max := o.ContextPolicyMax
		if max <= 0 {
			max = o.MaxNewTokens
		}
		return session.SlidingWindowPolicy{MaxTokens: max}, nil
	default:
		return nil, ErrUnknownContextPolicy
	}
}

func (o SessionOptions) samplerOptions(eosToken int) sampler.Options {
	opts := sampler.Options{
		Temperature:       o.Temperature,
		TopK:              o.TopK,
		TopP:              o.TopP,
		RepetitionPenalty: o.RepetitionPenalty,
		RepetitionWindow:  o.RepetitionWindow,
		EOSToken:          eosToken,
	}
	if o.Deterministic {
		opts.Temperature = 0
	}
	if o.Seed != nil {
		opts.Seed = *o.Seed
	}
	return opts
}

func (o SessionOptions) perSessionMaxBytes() int64 {
	if o.PerSessionKVBytes != nil {
		return *o.PerSessionKVBytes
	}
	return 0
}

func (o SessionOptions) cacheTMax(modelContextMax int) int {
	if o.MaxKVCacheTokens != nil && *o.MaxKVCacheTokens > 0 {
		return *o.MaxKVCacheTokens
	}
	return modelContextMax
}

// EngineOptions configures Engine construction: the KV cache pool's
// recycling depth and the shared session-store limits a multi-tenant
// embedder wants enforced across all of its sessions.
type EngineOptions struct {
	PoolCachesPerKey int
	MaxSessions      int
	TotalKVCacheMax  int64
}

// DefaultEngineOptions are conservative single-process embedding defaults.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{PoolCachesPerKey: 4, MaxSessions: 64}
}
