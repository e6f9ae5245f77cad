package executor

import (
	"context"
	"time"

	"github.com/nullstep/smq/internal/telemetry"
)

// PrefillResult is the outcome of one Prefill call (spec.md §4.5). Logits is
// a view into the context's reused scratch buffer (see transformer.Forward)
// and must be consumed before the next Prefill/Decode call on the same
// context.
type PrefillResult struct {
	Logits          []float32 // last prompt position's logits, [VocabSize]
	Cache           CacheHandle
	ProcessedTokens int
	Metrics         PrefillMetrics
}

// Prefill runs the forward pass over the full prompt into a freshly rented
// cache starting at position 0. If the context already holds a cache it
// fails with ErrCacheAlreadySet, unless AllowPrefillReset is set, in which
// case the held cache is returned to the pool first. If the prompt exceeds
// the model's context limit,
// it's cropped to the trailing C_max tokens and a ContextCropped event is
// emitted.
func (ec *ExecutionContext) Prefill(ctx context.Context, promptTokens []int) (PrefillResult, error) {
	if ec.cache != nil && !ec.AllowPrefillReset {
		return PrefillResult{}, ErrCacheAlreadySet
	}
	if ec.cache == nil || ec.AllowPrefillReset {
		if ec.cache != nil {
			ec.Pool.Return(ec.cache)
		}
		ec.cache = ec.Pool.Rent(ec.Shape, ec.TMax)
		ec.position = 0
	}

	tokens := promptTokens
	cMax := ec.Model.Shape.ContextMax
	if len(tokens) > cMax {
		dropped := len(tokens) - cMax
		tokens = tokens[dropped:]
		ec.Sink.Emit(telemetry.Event{
			Kind:   "ContextCropped",
			Fields: map[string]any{"dropped": dropped},
		})
	}

	return ec.runBatch(ctx, tokens, "prefill")
}

// ContinueWithTokens feeds additional tokens through the model against the
// context's existing cache, without renting a new one or resetting
// position. This is what session.Session uses to extend an already-primed
// cache with only the new suffix of a conversation (spec.md §4.7: "new
// user turns are appended by re-running prefill only on the new suffix
// since the last cached position, not the entire conversation"), instead
// of reprocessing everything from scratch the way Prefill does.
func (ec *ExecutionContext) ContinueWithTokens(ctx context.Context, tokens []int) (PrefillResult, error) {
	if ec.cache == nil {
		return PrefillResult{}, ErrInvariantViolation
	}
	return ec.runBatch(ctx, tokens, "prefill_continue")
}

func (ec *ExecutionContext) runBatch(ctx context.Context, tokens []int, eventKind string) (PrefillResult, error) {
	start := time.Now()
	result, err := ec.Model.Forward(ctx, tokens, ec.position, ec.cache, ec.scratch)
	if err != nil {
		return PrefillResult{}, err
	}
	elapsed := time.Since(start)
	ec.position += len(tokens)
	ec.prefillDone = true
	ec.firstDecodeDone = false

	vocab := ec.Model.Shape.VocabSize
	lastLogits := result.Logits[(len(tokens)-1)*vocab : len(tokens)*vocab]

	tokPerSec := 0.0
	if elapsed > 0 {
		tokPerSec = float64(len(tokens)) / elapsed.Seconds()
	}
	metrics := PrefillMetrics{Elapsed: elapsed, TokenCount: len(tokens), TokensPerSec: tokPerSec}

	ec.Sink.Emit(telemetry.Event{
		Kind: eventKind,
		Fields: map[string]any{
			"elapsed_ms": elapsed.Milliseconds(),
			"tok_count":  len(tokens),
		},
	})

	return PrefillResult{
		Logits:          lastLogits,
		Cache:           ec.cache,
		ProcessedTokens: len(tokens),
		Metrics:         metrics,
	}, nil
}
