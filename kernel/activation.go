package kernel

import "math"

// GELU applies the tanh approximation of the Gaussian Error Linear Unit
// in place, matching the activation used by the teacher's runner for GPT
// and Llama-family FFN blocks.
func GELU(x []float32) {
	const c = 0.7978845608028654 // sqrt(2/pi)
	for i, v := range x {
		v64 := float64(v)
		inner := c * (v64 + 0.044715*v64*v64*v64)
		x[i] = float32(0.5 * v64 * (1 + math.Tanh(inner)))
	}
}

// SiLU applies x * sigmoid(x) in place (the gate activation used by SwiGLU).
func SiLU(x []float32) {
	for i, v := range x {
		x[i] = v / (1 + float32(math.Exp(float64(-v))))
	}
}

// SwiGLU computes SiLU(gate) * up elementwise into dst. gate and up must be
// the same length; dst may alias up.
func SwiGLU(dst, gate, up []float32) error {
	if len(gate) != len(up) || len(dst) != len(gate) {
		return ErrShapeMismatch
	}
	for i := range gate {
		g := gate[i]
		s := g / (1 + float32(math.Exp(float64(-g))))
		dst[i] = s * up[i]
	}
	return nil
}

// ReLU applies max(0, x) in place.
func ReLU(x []float32) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}
