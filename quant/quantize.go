package quant

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"
)

func writeF16(dst []byte, v float32) {
	binary.LittleEndian.PutUint16(dst, float16.Fromfloat32(v).Bits())
}

// QuantizeQ8_0 encodes one 32-value block using an absmax scale, matching
// the Q8_0 layout in spec.md §3.1.
func QuantizeQ8_0(x []float32) ([]byte, error) {
	if len(x) != 32 {
		return nil, ErrInvalidShape
	}
	var amax float32
	for _, v := range x {
		if a := float32(math.Abs(float64(v))); a > amax {
			amax = a
		}
	}
	d := amax / 127
	var inv float32
	if d != 0 {
		inv = 1 / d
	}

	out := make([]byte, 34)
	writeF16(out[0:2], d)
	for i, v := range x {
		q := int32(math.Round(float64(v * inv)))
		if q > 127 {
			q = 127
		}
		if q < -127 {
			q = -127
		}
		out[2+i] = byte(int8(q))
	}
	return out, nil
}

// QuantizeQ4_0 encodes one 32-value block with a symmetric 4-bit scale,
// matching the Q4_0 layout and nibble packing convention in spec.md §3.1.
func QuantizeQ4_0(x []float32) ([]byte, error) {
	if len(x) != 32 {
		return nil, ErrInvalidShape
	}
	var amax float32
	for _, v := range x {
		if a := float32(math.Abs(float64(v))); a > amax {
			amax = a
		}
	}
	d := amax / 8
	var inv float32
	if d != 0 {
		inv = 1 / d
	}

	out := make([]byte, 18)
	writeF16(out[0:2], d)
	nibbles := out[2:18]
	for i := 0; i < 16; i++ {
		q0 := quantizeNibble(x[2*i] * inv)
		q1 := quantizeNibble(x[2*i+1] * inv)
		nibbles[i] = q0 | (q1 << 4)
	}
	return out, nil
}

func quantizeNibble(v float32) uint8 {
	q := int32(math.Round(float64(v))) + 8
	if q < 0 {
		q = 0
	}
	if q > 15 {
		q = 15
	}
	return uint8(q)
}
