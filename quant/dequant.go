package quant

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"
)

func readF16(b []byte) float32 {
	return float16.Frombits(binary.LittleEndian.Uint16(b)).Float32()
}

// DequantizeBlock reconstructs the B = scheme.BlockSize() float32 values
// encoded in a single on-disk block, per the layouts in spec.md §3.1. It
// allocates its result; hot loops (package kernel) should use
// DequantizeBlockInto against a caller-owned buffer instead.
func DequantizeBlock(scheme Scheme, block []byte) ([]float32, error) {
	out := make([]float32, scheme.BlockSize())
	if err := DequantizeBlockInto(scheme, block, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DequantizeBlockInto reconstructs a block's values into dst, which must
// have length scheme.BlockSize(). It performs no allocation, satisfying the
// fused-kernel contract in spec.md §4.2 ("no full-tensor materialization").
func DequantizeBlockInto(scheme Scheme, block []byte, dst []float32) error {
	if len(block) < scheme.BytesPerBlock() {
		return ErrShortRead
	}
	if len(dst) < scheme.BlockSize() {
		return ErrShapeMismatch
	}

	switch scheme {
	case F32:
		dst[0] = math.Float32frombits(binary.LittleEndian.Uint32(block))
	case F16:
		dst[0] = readF16(block)
	case Q8_0:
		dequantQ8_0Into(block, dst)
	case Q4_0:
		dequantQ4_0Into(block, dst)
	case Q4_1:
		dequantQ4_1Into(block, dst)
	case Q5_0:
		dequantQ5_0Into(block, dst)
	case Q4_K:
		dequantQ4KInto(block, dst)
	case Q6_K:
		dequantQ6KInto(block, dst)
	default:
		return ErrUnsupportedScheme
	}
	return nil
}

// nibbleAt returns the 4-bit value at logical index i within a packed
// nibble byte-string, per spec.md §3.1's packing convention: value at even
// linear index -> low nibble, odd -> high nibble of byte i/2.
func nibbleAt(data []byte, i int) uint8 {
	b := data[i/2]
	if i%2 == 0 {
		return b & 0x0F
	}
	return b >> 4
}

func dequantQ8_0Into(block []byte, out []float32) {
	d := readF16(block[0:2])
	for i := 0; i < 32; i++ {
		out[i] = float32(int8(block[2+i])) * d
	}
}

func dequantQ4_0Into(block []byte, out []float32) {
	d := readF16(block[0:2])
	nibbles := block[2:18]
	for i := 0; i < 32; i++ {
		q := int32(nibbleAt(nibbles, i)) - 8
		out[i] = float32(q) * d
	}
}

func dequantQ4_1Into(block []byte, out []float32) {
	d := readF16(block[0:2])
	m := readF16(block[2:4])
	nibbles := block[4:20]
	for i := 0; i < 32; i++ {
		q := nibbleAt(nibbles, i)
		out[i] = float32(q)*d + m
	}
}

func dequantQ5_0Into(block []byte, out []float32) {
	d := readF16(block[0:2])
	qh := binary.LittleEndian.Uint32(block[2:6])
	nibbles := block[6:22]
	for i := 0; i < 32; i++ {
		low := uint32(nibbleAt(nibbles, i))
		high := (qh >> uint(i)) & 1
		q := int32(low|(high<<4)) - 16
		out[i] = float32(q) * d
	}
}

// getScaleMinK4 unpacks the 6-bit sub-scale and sub-min for sub-block j
// (0..7) from Q4_K's 12-byte packed scale/min field. This bit layout is
// lifted from the canonical K-quant importer contract (spec.md §3.1 /
// §9: "implementers MUST lift the unpacking directly from the reference
// importer rather than re-deriving it").
func getScaleMinK4(j int, q []byte) (sc, m uint8) {
	if j < 4 {
		sc = q[j] & 63
		m = q[j+4] & 63
	} else {
		sc = (q[j+4] & 0x0F) | ((q[j-4] >> 6) << 4)
		m = (q[j+4] >> 4) | ((q[j] >> 6) << 4)
	}
	return sc, m
}

func dequantQ4KInto(block []byte, out []float32) {
	d := readF16(block[0:2])
	dmin := readF16(block[2:4])
	scales := block[4:16]
	qs := block[16:144]

	is := 0
	qOff := 0
	yOff := 0
	for iter := 0; iter < 4; iter++ {
		sc1, m1 := getScaleMinK4(is, scales)
		sc2, m2 := getScaleMinK4(is+1, scales)
		d1 := d * float32(sc1)
		mm1 := dmin * float32(m1)
		d2 := d * float32(sc2)
		mm2 := dmin * float32(m2)

		for l := 0; l < 32; l++ {
			out[yOff+l] = d1*float32(qs[qOff+l]&0x0F) - mm1
		}
		for l := 0; l < 32; l++ {
			out[yOff+32+l] = d2*float32(qs[qOff+l]>>4) - mm2
		}

		qOff += 32
		yOff += 64
		is += 2
	}
}

func dequantQ6KInto(block []byte, out []float32) {
	ql := block[0:128]
	qh := block[128:192]
	scales := block[192:208]
	d := readF16(block[208:210])

	for half := 0; half < 2; half++ {
		qlP := ql[half*64:]
		qhP := qh[half*32:]
		scP := scales[half*8:]
		yOff := half * 128

		for l := 0; l < 32; l++ {
			is := l / 16
			q1 := int32(qlP[l]&0x0F) | (int32(qhP[l]>>0)&3)<<4
			q2 := int32(qlP[l+32]&0x0F) | (int32(qhP[l]>>2)&3)<<4
			q3 := int32(qlP[l]>>4) | (int32(qhP[l]>>4)&3)<<4
			q4 := int32(qlP[l+32]>>4) | (int32(qhP[l]>>6)&3)<<4

			out[yOff+l+0] = d * float32(int8(scP[is+0])) * float32(q1-32)
			out[yOff+l+32] = d * float32(int8(scP[is+2])) * float32(q2-32)
			out[yOff+l+64] = d * float32(int8(scP[is+4])) * float32(q3-32)
			out[yOff+l+96] = d * float32(int8(scP[is+6])) * float32(q4-32)
		}
	}
}
