package transformer

import "github.com/nullstep/smq/kernel"

// ffn runs one layer's feed-forward block over a normed [T, Hidden]
// segment, returning [T, Hidden]. Intermediate buffers come from scratch;
// both branches share scratch.ffnDown since a model's Activation kind is
// fixed at load time, so only one branch is ever exercised.
func (m *Model) ffn(layer int, normed []float32, T int, scratch *Scratch) ([]float32, error) {
	s := m.Shape
	lw := m.Layers[layer]

	switch s.Activation {
	case ActivationSwiGLU:
		gate := grow32(&scratch.ffnGate, T*s.Intermediate)
		up := grow32(&scratch.ffnUp, T*s.Intermediate)
		if err := kernel.MatmulFused(normed, T, s.Hidden, lw.WGate, gate, m.KernelConfig); err != nil {
			return nil, err
		}
		if err := kernel.MatmulFused(normed, T, s.Hidden, lw.WUp, up, m.KernelConfig); err != nil {
			return nil, err
		}
		gated := grow32(&scratch.ffnGated, T*s.Intermediate)
		if err := kernel.SwiGLU(gated, gate, up); err != nil {
			return nil, err
		}
		down := grow32(&scratch.ffnDown, T*s.Hidden)
		if err := kernel.MatmulFused(gated, T, s.Intermediate, lw.WDown, down, m.KernelConfig); err != nil {
			return nil, err
		}
		return down, nil

	default: // GELU or ReLU: single up-projection, activation, down-projection
		hidden := grow32(&scratch.ffnHidden, T*s.Intermediate)
		if err := kernel.MatmulFused(normed, T, s.Hidden, lw.W1, hidden, m.KernelConfig); err != nil {
			return nil, err
		}
		if s.Activation == ActivationReLU {
			kernel.ReLU(hidden)
		} else {
			kernel.GELU(hidden)
		}
		down := grow32(&scratch.ffnDown, T*s.Hidden)
		if err := kernel.MatmulFused(hidden, T, s.Intermediate, lw.WDown, down, m.KernelConfig); err != nil {
			return nil, err
		}
		return down, nil
	}
}
