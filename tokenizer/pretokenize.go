package tokenizer

import "github.com/dlclark/regexp2"

// gptPretokenizePattern is the GPT-2/GPT-4-family pretokenizer regex: it
// splits on contractions, runs of letters, runs of digits, runs of
// punctuation/symbols, and trailing whitespace, using a negative lookahead
// (`(?!\S)`) to keep whitespace attached to the following word rather than
// the preceding one. Go's stdlib regexp (RE2) cannot express this
// lookahead, which is why this package depends on regexp2 — mirroring the
// lookahead-shaped alternation in the teacher's buildTokenizerPatterns.
const gptPretokenizePattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

var pretokenizeRegex = regexp2.MustCompile(gptPretokenizePattern, regexp2.None)

// pretokenize splits s into the chunks BPE merges are applied within
// independently (merges never cross a pretokenizer chunk boundary).
func pretokenize(s string) ([]string, error) {
	var chunks []string
	m, err := pretokenizeRegex.FindStringMatch(s)
	for m != nil && err == nil {
		chunks = append(chunks, m.String())
		m, err = pretokenizeRegex.FindNextMatch(m)
	}
	if err != nil {
		return nil, err
	}
	return chunks, nil
}
