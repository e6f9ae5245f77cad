package tokenizer

// byteToRune and runeToByte implement the canonical GPT-2 byte-level
// mapping: every possible byte value is mapped to a printable unicode
// codepoint so that merges.txt (a UTF-8 text file) can represent arbitrary
// binary input without escaping, matching the teacher's
// x/imagegen/tokenizer byteToRune table.
var (
	byteToRune [256]rune
	runeToByte map[rune]byte
)

func init() {
	runeToByte = make(map[rune]byte, 256)

	printable := make(map[int]bool, 256)
	add := func(lo, hi int) {
		for b := lo; b <= hi; b++ {
			printable[b] = true
		}
	}
	add('!', '~')
	add(0xA1, 0xAC)
	add(0xAE, 0xFF)

	n := 0
	for b := 0; b < 256; b++ {
		var r rune
		if printable[b] {
			r = rune(b)
		} else {
			r = rune(256 + n)
			n++
		}
		byteToRune[b] = r
		runeToByte[r] = byte(b)
	}
}

// ByteToken returns the single-rune string a raw byte value encodes to
// under the canonical byte-level mapping, the same representation a
// vocab.json/merges.txt file (or a vocab built in-memory for testing)
// must use for its single-byte entries.
func ByteToken(b byte) string {
	return string(byteToRune[b])
}

// encodeBytesToRunes converts raw bytes to the byte-level rune encoding
// BPE merges operate over.
func encodeBytesToRunes(b []byte) string {
	runes := make([]rune, len(b))
	for i, v := range b {
		runes[i] = byteToRune[v]
	}
	return string(runes)
}

// decodeRunesToBytes inverts encodeBytesToRunes; runes outside the mapped
// set are dropped.
func decodeRunesToBytes(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := runeToByte[r]; ok {
			out = append(out, b)
		}
	}
	return out
}
