package kernel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Config controls the sequential/parallel split described in spec.md §4.2.
type Config struct {
	// DeterministicMode forces sequential execution so that repeated calls
	// with identical inputs are bit-identical (spec.md §4.3).
	DeterministicMode bool

	// ParallelizationThreshold is the minimum outer-dimension size below
	// which work runs sequentially even if DeterministicMode is false.
	ParallelizationThreshold int

	// MaxDegreeOfParallelism bounds the number of worker goroutines used
	// to partition the outer dimension.
	MaxDegreeOfParallelism int
}

// DefaultConfig mirrors the teacher's default CPU thread sizing
// (ml.BackendParams.NumThreads), picking a small, conservative worker cap.
func DefaultConfig() Config {
	return Config{
		ParallelizationThreshold: 64,
		MaxDegreeOfParallelism:   8,
	}
}

// Parallelize partitions the outer dimension [0, n) into static blocks and
// runs fn(start, end) either sequentially or across up to
// cfg.MaxDegreeOfParallelism worker goroutines, per spec.md §4.2's
// selection rule. Workers use static block assignment; there is no work
// stealing, so the same input always partitions identically.
func Parallelize(n int, cfg Config, fn func(start, end int)) {
	if cfg.DeterministicMode || n < cfg.ParallelizationThreshold || cfg.MaxDegreeOfParallelism <= 1 {
		fn(0, n)
		return
	}

	workers := cfg.MaxDegreeOfParallelism
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, n)
		if start >= end {
			break
		}
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait()
}
