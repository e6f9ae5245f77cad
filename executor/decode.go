package executor

import (
	"context"
	"time"

	"github.com/nullstep/smq/internal/telemetry"
)

// DecodeResult is the outcome of one Decode call (spec.md §4.5). Logits is
// a view into the context's reused scratch buffer and is only valid until
// the next Prefill/Decode call on the same context.
type DecodeResult struct {
	Logits  []float32 // [VocabSize]
	Cache   CacheHandle
	Metrics DecodeMetrics
}

// Decode runs the forward pass for a single next token against the
// context's existing cache. The single-token input buffer, the forward
// scratch workspace, and the telemetry fields map are all allocated once
// (in NewExecutionContext) and reused on every call, so a repeated Decode
// at a stable shape makes zero further heap allocations, per spec.md
// §4.5's steady-state allocation budget.
func (ec *ExecutionContext) Decode(ctx context.Context, nextToken int) (DecodeResult, error) {
	if ec.cache == nil {
		if ec.RequireKVCache {
			return DecodeResult{}, ErrInvariantViolation
		}
	}

	start := time.Now()
	ec.decodeTokenBuf[0] = nextToken
	result, err := ec.Model.Forward(ctx, ec.decodeTokenBuf, ec.position, ec.cache, ec.scratch)
	if err != nil {
		return DecodeResult{}, err
	}
	elapsed := time.Since(start)

	var ttft time.Duration
	if !ec.firstDecodeDone {
		ttft = elapsed
		ec.firstDecodeDone = true
	}

	position := ec.position
	ec.position++

	// decodeEventFields is owned by ec and reused every call: only its
	// values change, so the map itself never reallocates after its first
	// two insertions grow it to size. With no sink attached (the default),
	// skip populating it entirely: boxing elapsed/position into the
	// any-typed map would still allocate even though the map doesn't.
	if !ec.nopSink {
		ec.decodeEventFields["elapsed_ms"] = elapsed.Milliseconds()
		ec.decodeEventFields["position"] = position
		ec.Sink.Emit(telemetry.Event{Kind: "decode", Fields: ec.decodeEventFields})
	}

	return DecodeResult{
		Logits: result.Logits,
		Cache:  ec.cache,
		Metrics: DecodeMetrics{
			Elapsed:          elapsed,
			Position:         position,
			CacheUsed:        ec.cache.CurrentTokens(),
			TimeToFirstToken: ttft,
		},
	}, nil
}
