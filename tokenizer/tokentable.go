package tokenizer

// tokenTableEncode implements the token-table-only mode of spec.md §4.8:
// no merges, just greedy longest-prefix matching against the vocabulary
// over the byte-level rune encoding, falling back to the single-byte
// token for any run no vocabulary entry covers.
func (v *Vocab) tokenTableEncode(chunk string) []int {
	runes := []rune(chunk)
	ids := make([]int, 0, len(runes))

	for i := 0; i < len(runes); {
		matched := false
		for j := len(runes); j > i; j-- {
			if id, ok := v.TokenToID[string(runes[i:j])]; ok {
				ids = append(ids, id)
				i = j
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if b, ok := runeToByte[runes[i]]; ok {
			if id := v.ByteToken[b]; id >= 0 {
				ids = append(ids, id)
			}
		}
		i++
	}
	return ids
}
