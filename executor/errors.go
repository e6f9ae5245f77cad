// Package executor implements the prefill/decode execution split (spec.md
// §4.5): ExecutionContext owns a rented KV cache and the scratch buffers
// reused across decode calls, and records per-call telemetry (latency,
// token counts, cache occupancy, time-to-first-token).
package executor

import "errors"

var (
	ErrInvariantViolation = errors.New("executor: decode called without a populated cache")
	ErrCacheAlreadySet    = errors.New("executor: prefill called on a context that already has a cache")
)
