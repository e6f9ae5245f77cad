package kernel

import (
	"math"
	"math/rand"
	"testing"

	"github.com/nullstep/smq/quant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// refMatmul computes a dense float32 reference with a naive triple loop
// over rows the caller has already quantized and dequantized through the
// same scheme — used as the "scalar reference" shape-family comparison
// from spec.md §8.
func refMatmul(a []float32, m, k int, rows [][]float32, n int) []float32 {
	out := make([]float32, m*n)
	for mi := 0; mi < m; mi++ {
		for ni := 0; ni < n; ni++ {
			var acc float32
			for ki := 0; ki < k; ki++ {
				acc += a[mi*k+ki] * rows[ni][ki]
			}
			out[mi*n+ni] = acc
		}
	}
	return out
}

func buildQ8Tensor(t *testing.T, rows [][]float32, k int) *quant.Tensor {
	t.Helper()
	var data []byte
	for _, row := range rows {
		for off := 0; off < k; off += 32 {
			blk, err := quant.QuantizeQ8_0(row[off : off+32])
			require.NoError(t, err)
			data = append(data, blk...)
		}
	}
	return &quant.Tensor{Scheme: quant.Q8_0, Shape: []int{len(rows), k}, Data: data}
}

func TestMatmulFusedAgainstScalarReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, m := range []int{1, 4, 32} {
		for _, k := range []int{32, 128, 256} {
			for _, n := range []int{32, 128} {
				a := make([]float32, m*k)
				for i := range a {
					a[i] = float32(rng.NormFloat64())
				}
				rows := make([][]float32, n)
				for i := range rows {
					rows[i] = make([]float32, k)
					for j := range rows[i] {
						rows[i][j] = float32(rng.NormFloat64())
					}
				}
				b := buildQ8Tensor(t, rows, k)

				// Reference uses the quantized rows (round-tripped), not the
				// raw float rows, since the kernel can only ever see the
				// quantized representation.
				dequantRows := make([][]float32, n)
				for i := range rows {
					dequantRows[i] = make([]float32, k)
					for off := 0; off < k; off += 32 {
						blk, err := b.Row(i)
						require.NoError(t, err)
						require.NoError(t, quant.DequantizeBlockInto(quant.Q8_0, blk[off/32*34:off/32*34+34], dequantRows[i][off:off+32]))
					}
				}
				want := refMatmul(a, m, k, dequantRows, n)

				got := make([]float32, m*n)
				cfg := Config{DeterministicMode: true}
				require.NoError(t, MatmulFused(a, m, k, b, got, cfg))

				for i := range want {
					bound := 5e-3*math.Abs(float64(want[i])) + 5e-3
					assert.LessOrEqualf(t, math.Abs(float64(got[i]-want[i])), bound, "index %d: got %v want %v", i, got[i], want[i])
				}
			}
		}
	}
}

func TestMatmulFusedShapeMismatch(t *testing.T) {
	b := &quant.Tensor{Scheme: quant.Q8_0, Shape: []int{2, 32}, Data: make([]byte, 2*34)}
	out := make([]float32, 2)
	err := MatmulFused(make([]float32, 16), 1, 16, b, out, Config{DeterministicMode: true})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestMatmulFusedParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	k, n, m := 128, 256, 4
	a := make([]float32, m*k)
	for i := range a {
		a[i] = float32(rng.NormFloat64())
	}
	rows := make([][]float32, n)
	for i := range rows {
		rows[i] = make([]float32, k)
		for j := range rows[i] {
			rows[i][j] = float32(rng.NormFloat64())
		}
	}
	b := buildQ8Tensor(t, rows, k)

	seq := make([]float32, m*n)
	require.NoError(t, MatmulFused(a, m, k, b, seq, Config{DeterministicMode: true}))

	par := make([]float32, m*n)
	require.NoError(t, MatmulFused(a, m, k, b, par, Config{ParallelizationThreshold: 1, MaxDegreeOfParallelism: 4}))

	for i := range seq {
		assert.InDelta(t, seq[i], par[i], 1e-4)
	}
}
