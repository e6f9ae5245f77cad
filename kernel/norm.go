package kernel

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// RMSNorm applies root-mean-square normalization: out[i] = x[i] / rms(x) *
// weight[i], where rms(x) = sqrt(mean(x^2) + eps). The sum-of-squares
// reduction goes through gonum/floats.Dot, which uses a numerically stable
// pairwise-friendly BLAS-style accumulation rather than a naive running
// sum, satisfying spec.md §4.2's reduction-order requirement.
func RMSNorm(dst, x, weight []float32, eps float32) error {
	return RMSNormInto(dst, x, weight, eps, nil)
}

// RMSNormInto behaves like RMSNorm but writes the float64 reduction buffer
// into *scratch instead of allocating a new one every call, growing it in
// place only when undersized. Passing a nil scratch allocates exactly as
// RMSNorm always has; callers on a hot path (transformer.normRows) pass a
// buffer owned by their executor context so repeated calls at a stable
// shape make zero allocations.
func RMSNormInto(dst, x, weight []float32, eps float32, scratch *[]float64) error {
	if len(x) != len(weight) || len(dst) != len(x) {
		return ErrShapeMismatch
	}
	n := len(x)
	x64 := float64Buf(scratch, n)
	for i, v := range x {
		x64[i] = float64(v)
	}
	ss := floats.Dot(x64, x64)
	rms := math.Sqrt(ss/float64(n) + float64(eps))
	inv := float32(1 / rms)
	for i := range x {
		dst[i] = x[i] * inv * weight[i]
	}
	return nil
}

// LayerNorm applies standard layer normalization with learned scale and
// bias: out[i] = (x[i]-mean)/sqrt(var+eps) * weight[i] + bias[i].
func LayerNorm(dst, x, weight, bias []float32, eps float32) error {
	return LayerNormInto(dst, x, weight, bias, eps, nil)
}

// LayerNormInto behaves like LayerNorm but reuses *scratch the same way
// RMSNormInto does.
func LayerNormInto(dst, x, weight, bias []float32, eps float32, scratch *[]float64) error {
	if len(x) != len(weight) || len(x) != len(bias) || len(dst) != len(x) {
		return ErrShapeMismatch
	}
	n := len(x)
	x64 := float64Buf(scratch, n)
	for i, v := range x {
		x64[i] = float64(v)
	}
	mean := floats.Sum(x64) / float64(n)
	var varSum float64
	for _, v := range x64 {
		d := v - mean
		varSum += d * d
	}
	variance := varSum / float64(n)
	inv := float32(1 / math.Sqrt(variance+float64(eps)))
	meanF := float32(mean)
	for i := range x {
		dst[i] = (x[i]-meanF)*inv*weight[i] + bias[i]
	}
	return nil
}

// float64Buf returns (*scratch)[:n], growing the backing array only when
// undersized. A nil scratch always allocates fresh, matching the
// allocation-per-call behavior RMSNorm/LayerNorm had before these Into
// variants existed.
func float64Buf(scratch *[]float64, n int) []float64 {
	if scratch == nil {
		return make([]float64, n)
	}
	if cap(*scratch) < n {
		*scratch = make([]float64, n)
	} else {
		*scratch = (*scratch)[:n]
	}
	return *scratch
}
