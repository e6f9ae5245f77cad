package transformer

import "github.com/nullstep/smq/kernel"

const defaultNormEps = 1e-5

func (m *Model) applyNorm(dst, x, weight, bias []float32, scratch *Scratch) error {
	if m.Shape.Norm == NormLayer {
		return kernel.LayerNormInto(dst, x, weight, bias, defaultNormEps, &scratch.normX64)
	}
	return kernel.RMSNormInto(dst, x, weight, defaultNormEps, &scratch.normX64)
}

// normRows applies applyNorm independently to each of T rows of width
// Hidden within x, writing into dst (which may alias x).
func (m *Model) normRows(dst, x, weight, bias []float32, T int, scratch *Scratch) error {
	h := m.Shape.Hidden
	for t := 0; t < T; t++ {
		if err := m.applyNorm(dst[t*h:(t+1)*h], x[t*h:(t+1)*h], weight, bias, scratch); err != nil {
			return err
		}
	}
	return nil
}
