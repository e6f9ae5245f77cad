package kernel

// TileParams describes the microkernel tile dimensions used to block the
// (m, k, n) matmul iteration so that one microkernel tile of B and one
// micro-tile of C stay resident in L1, per spec.md §4.2. The shape of this
// struct (register-tile rows/cols plus an L1-sized K-blocking factor) is
// adapted from the blocking-parameter design in the corpus reference
// janpfeifer-go-highway/hwy-contrib/matmul/cache_params.go (a
// CacheParams{Mr, Nr, Kc, Mc, Nc} struct selected per SIMD width); the
// concrete tile sizes below are spec.md §4.2's own numbers (6x16 for
// 256-bit SIMD, 6x32 for 512-bit SIMD) rather than that file's AVX tuning,
// since this is a portable scalar-fallback kernel, not a hand-vectorized one.
type TileParams struct {
	Mr int // rows per microkernel tile
	Nr int // columns per microkernel tile
	Kc int // K-blocking to keep one B panel resident in L1
}

// TileAVX2 mirrors a 256-bit SIMD width: 6 rows x 16 columns.
func TileAVX2() TileParams { return TileParams{Mr: 6, Nr: 16, Kc: 256} }

// TileAVX512 mirrors a 512-bit SIMD width: 6 rows x 32 columns.
func TileAVX512() TileParams { return TileParams{Mr: 6, Nr: 32, Kc: 256} }

// TileScalar is used whenever the (m, n) shape is smaller than a
// microkernel tile, or no SIMD width information is available; it still
// blocks K to bound the working set, but Mr/Nr collapse to 1 since there is
// no register-level tiling to do in the scalar fallback.
func TileScalar() TileParams { return TileParams{Mr: 1, Nr: 1, Kc: 256} }

// Select picks a tile configuration for the given output shape. Shapes
// smaller than a tile's (Mr, Nr) always fall back to the scalar tiling,
// satisfying spec.md §4.2's "scalar fallback ... whenever the input
// dimensions are smaller than the microkernel tile" requirement.
func Select(m, n int, wide bool) TileParams {
	t := TileAVX2()
	if wide {
		t = TileAVX512()
	}
	if m < t.Mr || n < t.Nr {
		return TileScalar()
	}
	return t
}
