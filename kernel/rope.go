package kernel

import "math"

// RoPEParams configures rotary position embedding application, per
// spec.md §5.2's attention projection step.
type RoPEParams struct {
	// Base is the frequency base (commonly 10000 or 1000000 for extended
	// context models).
	Base float64
	// Dims is the number of dimensions rotated (usually the full head_dim,
	// but some models rotate only a prefix).
	Dims int
}

// ApplyRoPE rotates the head_dim-length vector x in place for the given
// absolute sequence position, using the standard interleaved-pair rotation:
// for each pair (x[2i], x[2i+1]), rotate by theta_i = pos / base^(2i/dims).
func ApplyRoPE(x []float32, pos int, p RoPEParams) error {
	if p.Dims > len(x) || p.Dims%2 != 0 {
		return ErrShapeMismatch
	}
	for i := 0; i < p.Dims/2; i++ {
		freq := 1.0 / math.Pow(p.Base, float64(2*i)/float64(p.Dims))
		theta := float64(pos) * freq
		sinT, cosT := math.Sincos(theta)
		x0 := float64(x[2*i])
		x1 := float64(x[2*i+1])
		x[2*i] = float32(x0*cosT - x1*sinT)
		x[2*i+1] = float32(x0*sinT + x1*cosT)
	}
	return nil
}
