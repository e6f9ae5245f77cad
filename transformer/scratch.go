package transformer

// Scratch is the per-session forward-pass workspace that Forward,
// attention, and ffn reuse across calls instead of allocating fresh
// buffers every time. Buffers grow (with doubling headroom, so repeated
// growth amortizes rather than reallocating on every call) to the largest
// shape seen and are never shrunk back down, so a steady-state decode call
// (T=1, a shape already seen during warm-up) makes no further heap
// allocations, per spec.md §4.5's "repeated decode(t, ctx) ... must produce
// zero heap allocations" contract. One Scratch belongs to exactly one
// executor.ExecutionContext; it is never shared across sessions.
type Scratch struct {
	x, normed, final, logits []float32

	q, k, v, attnOut, proj []float32
	scores                 []float32

	ffnGate, ffnUp, ffnGated, ffnHidden, ffnDown []float32

	normX64 []float64
}

// NewScratch returns an empty workspace; every buffer grows lazily on its
// first use.
func NewScratch() *Scratch { return &Scratch{} }

// grow32 returns (*buf)[:n], reallocating with doubling headroom only when
// the current backing array is too small.
func grow32(buf *[]float32, n int) []float32 {
	if cap(*buf) < n {
		newCap := cap(*buf) * 2
		if newCap < n {
			newCap = n
		}
		*buf = make([]float32, n, newCap)
	} else {
		*buf = (*buf)[:n]
	}
	return *buf
}
