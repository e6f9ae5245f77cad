package transformer

import (
	"context"

	"github.com/nullstep/smq/kernel"
	"github.com/nullstep/smq/kvcache"
)

// Result is the output of one forward pass: logits for every position in
// the segment (T_last positions, per spec.md §4.3 — T_last is 1 in decode,
// the full prompt length in prefill).
type Result struct {
	Logits []float32 // [T, VocabSize] row-major
}

// Forward runs the full transformer over tokens, a contiguous segment
// starting at absolute position posOffset, reading/writing cache for every
// layer. Cancellation is polled once per layer, matching spec.md §5's
// "Once per transformer layer inside the forward pass" rule.
//
// scratch must not be nil; it is the caller's (executor.ExecutionContext's)
// workspace, grown to the largest shape seen across calls so a repeated
// decode at a stable T makes no further heap allocations, per spec.md
// §4.5's steady-state allocation budget. The returned Result.Logits is a
// view into scratch and is only valid until the next Forward call on the
// same scratch.
func (m *Model) Forward(ctx context.Context, tokens []int, posOffset int, cache *kvcache.Cache, scratch *Scratch) (Result, error) {
	T := len(tokens)
	if posOffset+T > m.Shape.ContextMax {
		return Result{}, ErrContextLimitExceeded
	}

	h := m.Shape.Hidden
	x := grow32(&scratch.x, T*h)
	if err := m.embedTokens(tokens, x); err != nil {
		return Result{}, err
	}

	normed := grow32(&scratch.normed, T*h)
	for layer := 0; layer < m.Shape.Layers; layer++ {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		lw := m.Layers[layer]
		if err := m.normRows(normed, x, lw.AttnNormWeight, lw.AttnNormBias, T, scratch); err != nil {
			return Result{}, err
		}
		attnOut, err := m.attention(layer, normed, T, posOffset, cache, scratch)
		if err != nil {
			return Result{}, err
		}
		for i := range x {
			x[i] += attnOut[i]
		}

		if err := m.normRows(normed, x, lw.FFNNormWeight, lw.FFNNormBias, T, scratch); err != nil {
			return Result{}, err
		}
		ffnOut, err := m.ffn(layer, normed, T, scratch)
		if err != nil {
			return Result{}, err
		}
		for i := range x {
			x[i] += ffnOut[i]
		}
	}

	if err := cache.Advance(T); err != nil {
		return Result{}, err
	}

	final := grow32(&scratch.final, T*h)
	if err := m.normRows(final, x, m.FinalNormWeight, m.FinalNormBias, T, scratch); err != nil {
		return Result{}, err
	}

	logits := grow32(&scratch.logits, T*m.Shape.VocabSize)
	if err := kernel.MatmulFused(final, T, h, m.OutputProj, logits, m.KernelConfig); err != nil {
		return Result{}, err
	}

	return Result{Logits: logits}, nil
}
