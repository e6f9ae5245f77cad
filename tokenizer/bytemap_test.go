package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteRuneRoundTrip(t *testing.T) {
	raw := []byte{0, 1, 9, 32, 65, 127, 200, 255}
	encoded := encodeBytesToRunes(raw)
	decoded := decodeRunesToBytes(encoded)
	assert.Equal(t, raw, decoded)
}

func TestByteRuneMappingIsBijective(t *testing.T) {
	seen := make(map[rune]bool, 256)
	for b := 0; b < 256; b++ {
		r := byteToRune[b]
		assert.False(t, seen[r], "rune %d reused for byte %d", r, b)
		seen[r] = true
		assert.Equal(t, byte(b), runeToByte[r])
	}
}
