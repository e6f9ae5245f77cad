// Package transformer implements the forward pass (spec.md §4.3): token
// embedding, per-layer pre-norm attention with optional RoPE and
// grouped/multi-query K/V sharing, a gated or plain FFN, a final norm, and
// the output projection to vocabulary logits. All matrix multiplies go
// through package kernel's fused dequantize+matmul so weights never get
// materialized as dense float32 tensors.
package transformer

import "errors"

var (
	ErrContextLimitExceeded = errors.New("transformer: input length exceeds model context limit")
	ErrInvalidToken         = errors.New("transformer: token id out of vocabulary range")
	ErrShapeMismatch        = errors.New("transformer: shape mismatch")
)
