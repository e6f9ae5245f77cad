// Package kvcache implements the key/value cache (spec.md §4.4): per-layer
// contiguous float32 K/V buffers sized to a fixed model shape and capacity,
// a pool keyed by (model shape, T_max), and a per-session LRU budget store
// with eviction telemetry.
//
// The cell/range bookkeeping here is adapted from the teacher's
// kvcache.Causal (cellRange, sequence-scoped Remove/shift), generalized from
// ggml-tensor-backed storage to plain contiguous []float32 slices, since
// this engine has no GPU/ggml backend to delegate storage to.
package kvcache

import "errors"

var (
	ErrCacheOverflow    = errors.New("kvcache: append would exceed capacity")
	ErrShapeMismatch    = errors.New("kvcache: shape mismatch")
	ErrInvalidRange     = errors.New("kvcache: invalid read range")
	ErrBudgetExceeded   = errors.New("kvcache: budget exceeded")
	ErrNotFound         = errors.New("kvcache: session not found")
)
