package kernel

import (
	"github.com/nullstep/smq/quant"
)

// MatmulFused computes out[m, n] = a[m, k] @ b.T, where a is a dense
// row-major float32 activation matrix and b is a quantized weight tensor
// shaped [n, k] (GGML's [out_features, in_features] convention). It
// dequantizes b one block at a time into a fixed-size stack buffer and
// accumulates directly into out, so steady-state decode makes zero heap
// allocations, per spec.md §4.2.
//
// out must be pre-sized to m*n and is fully overwritten (not accumulated
// into). cfg selects the sequential/parallel split; the n (output-row)
// dimension is partitioned across workers since each output row is an
// independent dot-product reduction over b's rows.
func MatmulFused(a []float32, m, k int, b *quant.Tensor, out []float32, cfg Config) error {
	if len(b.Shape) != 2 {
		return ErrShapeMismatch
	}
	n, bk := b.Shape[0], b.Shape[1]
	if bk != k {
		return ErrShapeMismatch
	}
	if len(a) != m*k || len(out) != m*n {
		return ErrShapeMismatch
	}
	if !b.Scheme.IsQuantized() && b.Scheme != quant.F32 && b.Scheme != quant.F16 {
		return ErrSchemeMismatch
	}

	bs := b.Scheme.BlockSize()
	if bs == 0 {
		return ErrSchemeMismatch
	}
	if k%bs != 0 {
		return ErrShapeMismatch
	}
	blocksPerRow := k / bs
	bpb := b.Scheme.BytesPerBlock()

	// Tile the (m, n) iteration per spec.md §4.2: Nr output rows and Mr
	// activation rows per microkernel tile, with the k reduction itself
	// blocked by Kc blocks so one B panel plus the in-flight accumulators
	// stay resident in L1. Shapes smaller than a tile collapse to
	// TileScalar via Select, which still applies the Kc blocking.
	tile := Select(m, n, false)
	blocksPerKc := tile.Kc / bs
	if blocksPerKc == 0 {
		blocksPerKc = 1
	}

	Parallelize(n, cfg, func(start, end int) {
		var blk [256]float32
		for nTile := start; nTile < end; nTile += tile.Nr {
			nTileEnd := min(nTile+tile.Nr, end)
			for mTile := 0; mTile < m; mTile += tile.Mr {
				mTileEnd := min(mTile+tile.Mr, m)

				for row := nTile; row < nTileEnd; row++ {
					rowBytes, err := b.Row(row)
					if err != nil {
						continue
					}
					for mi := mTile; mi < mTileEnd; mi++ {
						aRow := a[mi*k : mi*k+k]
						var acc float32
						for kc := 0; kc < blocksPerRow; kc += blocksPerKc {
							kcEnd := min(kc+blocksPerKc, blocksPerRow)
							for blkIdx := kc; blkIdx < kcEnd; blkIdx++ {
								blockBytes := rowBytes[blkIdx*bpb : blkIdx*bpb+bpb]
								dst := blk[:bs]
								if err := quant.DequantizeBlockInto(b.Scheme, blockBytes, dst); err != nil {
									continue
								}
								base := blkIdx * bs
								for l := 0; l < bs; l++ {
									acc += aRow[base+l] * dst[l]
								}
							}
						}
						out[mi*n+row] = acc
					}
				}
			}
		}
	})
	return nil
}
