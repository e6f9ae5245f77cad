package transformer

import "github.com/nullstep/smq/quant"

// embedTokens dequantizes the embedding row for each token id into dst,
// a [T, Hidden] row-major buffer.
func (m *Model) embedTokens(tokens []int, dst []float32) error {
	h := m.Shape.Hidden
	bs := m.EmbedTokens.Scheme.BlockSize()
	bpb := m.EmbedTokens.Scheme.BytesPerBlock()
	blocksPerRow := h / bs

	var blk [256]float32
	for ti, tok := range tokens {
		if tok < 0 || tok >= m.Shape.VocabSize {
			return ErrInvalidToken
		}
		row, err := m.EmbedTokens.Row(tok)
		if err != nil {
			return err
		}
		out := dst[ti*h : (ti+1)*h]
		for bi := 0; bi < blocksPerRow; bi++ {
			block := row[bi*bpb : bi*bpb+bpb]
			if err := quant.DequantizeBlockInto(m.EmbedTokens.Scheme, block, blk[:bs]); err != nil {
				return err
			}
			copy(out[bi*bs:(bi+1)*bs], blk[:bs])
		}
	}
	return nil
}
