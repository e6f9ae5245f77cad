package kernel

import "math"

// Softmax computes the numerically stable softmax of x in place: subtract
// the row max before exponentiating, then normalize by the sum.
func Softmax(x []float32) {
	if len(x) == 0 {
		return
	}
	max := x[0]
	for _, v := range x[1:] {
		if v > max {
			max = v
		}
	}
	var sum float32
	for i, v := range x {
		e := float32(math.Exp(float64(v - max)))
		x[i] = e
		sum += e
	}
	if sum == 0 {
		return
	}
	inv := 1 / sum
	for i := range x {
		x[i] *= inv
	}
}

// MaskedSoftmax applies a causal mask (positions j > row are set to -inf)
// before computing Softmax in place over scores, where row is the query
// position within the current window.
func MaskedSoftmax(scores []float32, row int) {
	for j := row + 1; j < len(scores); j++ {
		scores[j] = float32(math.Inf(-1))
	}
	Softmax(scores)
}
