package executor

import "time"

// PrefillMetrics carries the per-call performance record spec.md §4.5
// requires for prefill.
type PrefillMetrics struct {
	Elapsed     time.Duration
	TokenCount  int
	TokensPerSec float64
}

// DecodeMetrics carries the per-call performance record for decode.
// TimeToFirstToken is non-zero only on the first decode call following a
// prefill in the same context.
type DecodeMetrics struct {
	Elapsed           time.Duration
	Position          int
	CacheUsed         int
	TimeToFirstToken  time.Duration
}
