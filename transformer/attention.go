package transformer

import (
	"math"

	"github.com/nullstep/smq/kernel"
	"github.com/nullstep/smq/kvcache"
)

// attention runs one layer's attention block for a T-token segment. normed
// is the pre-attention-normed hidden state, [T, Hidden] row-major. It
// returns the attention-block output after the output projection (before
// the residual add), [T, Hidden] row-major, as a view into scratch.
// posOffset is the absolute position of normed's first token. All
// intermediate buffers come from scratch.
func (m *Model) attention(layer int, normed []float32, T, posOffset int, cache *kvcache.Cache, scratch *Scratch) ([]float32, error) {
	s := m.Shape
	lw := m.Layers[layer]
	headDim := s.HeadDim
	qDim := s.QueryHeads * headDim
	kvDim := s.KVHeads * headDim

	q := grow32(&scratch.q, T*qDim)
	k := grow32(&scratch.k, T*kvDim)
	v := grow32(&scratch.v, T*kvDim)
	if err := kernel.MatmulFused(normed, T, s.Hidden, lw.WQ, q, m.KernelConfig); err != nil {
		return nil, err
	}
	if err := kernel.MatmulFused(normed, T, s.Hidden, lw.WK, k, m.KernelConfig); err != nil {
		return nil, err
	}
	if err := kernel.MatmulFused(normed, T, s.Hidden, lw.WV, v, m.KernelConfig); err != nil {
		return nil, err
	}

	if s.RopeTheta > 0 {
		rp := kernel.RoPEParams{Base: s.RopeTheta, Dims: headDim}
		for t := 0; t < T; t++ {
			pos := posOffset + t
			for h := 0; h < s.QueryHeads; h++ {
				if err := kernel.ApplyRoPE(q[t*qDim+h*headDim:t*qDim+(h+1)*headDim], pos, rp); err != nil {
					return nil, err
				}
			}
			for h := 0; h < s.KVHeads; h++ {
				if err := kernel.ApplyRoPE(k[t*kvDim+h*headDim:t*kvDim+(h+1)*headDim], pos, rp); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := cache.AppendKV(layer, k, v, T); err != nil {
		return nil, err
	}
	total := posOffset + T
	allK, err := cache.PeekKeys(layer, total)
	if err != nil {
		return nil, err
	}
	allV, err := cache.PeekValues(layer, total)
	if err != nil {
		return nil, err
	}

	groupSize := s.QueryHeads / s.KVHeads
	scale := float32(1 / math.Sqrt(float64(headDim)))

	// out accumulates (+=) below, so a reused buffer must be zeroed first;
	// scores is fully overwritten by MaskedSoftmax every iteration and
	// needs no zeroing.
	out := grow32(&scratch.attnOut, T*qDim)
	for i := range out {
		out[i] = 0
	}
	scores := grow32(&scratch.scores, total)
	for t := 0; t < T; t++ {
		pos := posOffset + t
		for h := 0; h < s.QueryHeads; h++ {
			kvHead := h / groupSize
			qVec := q[t*qDim+h*headDim : t*qDim+(h+1)*headDim]

			for j := 0; j < total; j++ {
				kVec := allK[j*kvDim+kvHead*headDim : j*kvDim+(kvHead+1)*headDim]
				var dot float32
				for d := 0; d < headDim; d++ {
					dot += qVec[d] * kVec[d]
				}
				scores[j] = dot * scale
			}
			kernel.MaskedSoftmax(scores, pos)

			outVec := out[t*qDim+h*headDim : t*qDim+(h+1)*headDim]
			for j := 0; j < total; j++ {
				w := scores[j]
				if w == 0 {
					continue
				}
				vVec := allV[j*kvDim+kvHead*headDim : j*kvDim+(kvHead+1)*headDim]
				for d := 0; d < headDim; d++ {
					outVec[d] += w * vVec[d]
				}
			}
		}
	}

	proj := grow32(&scratch.proj, T*s.Hidden)
	if err := kernel.MatmulFused(out, T, qDim, lw.WO, proj, m.KernelConfig); err != nil {
		return nil, err
	}
	return proj, nil
}
