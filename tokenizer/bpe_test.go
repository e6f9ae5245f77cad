package tokenizer

import (
	"testing"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVocab(tokens []string, merges [][2]string) *Vocab {
	v := &Vocab{
		TokenToID: make(map[string]int, len(tokens)),
		IDToToken: tokens,
		Merges:    orderedmap.New[string, int](),
	}
	for i := range v.ByteToken {
		v.ByteToken[i] = -1
	}
	for id, tok := range tokens {
		v.TokenToID[tok] = id
		if r := []rune(tok); len(r) == 1 {
			if b, ok := runeToByte[r[0]]; ok {
				v.ByteToken[b] = id
			}
		}
	}
	for rank, m := range merges {
		v.Merges.Set(m[0]+" "+m[1], rank)
	}
	return v
}

func TestBPEEncodeChunkAppliesMergesInRankOrder(t *testing.T) {
	v := newTestVocab(
		[]string{"l", "o", "w", "e", "r", "lo", "low"},
		[][2]string{{"l", "o"}, {"lo", "w"}},
	)
	parts := v.bpeEncodeChunk("low")
	assert.Equal(t, []string{"low"}, parts)
}

func TestBPEEncodeChunkStopsWhenNoMoreMergesApply(t *testing.T) {
	v := newTestVocab(
		[]string{"l", "o", "w", "e", "r", "lo"},
		[][2]string{{"l", "o"}},
	)
	// "lo" + "w" has no registered merge, so it stays split.
	parts := v.bpeEncodeChunk("low")
	assert.Equal(t, []string{"lo", "w"}, parts)
}

func TestBPEEncodeChunkHandlesOverlappingMergeCandidates(t *testing.T) {
	v := newTestVocab(
		[]string{"n", "e", "w", "s", "t", "ne", "ew", "new", "newest_stub"},
		[][2]string{{"e", "w"}, {"n", "e"}, {"ne", "w"}},
	)
	// rank0 e+w applies first, producing "ew". The queued rank1 n+e
	// candidate is still adjacent by position, but its right side's text
	// is now "ew", so the rank recheck must reject it as stale instead of
	// merging as if the right side were still "e".
	parts := v.bpeEncodeChunk("new")
	require.NotEmpty(t, parts)
	// No n+ew merge is registered, so the chunk ends as "n" + "ew"; the
	// parts must be internally consistent (no dangling/duplicated
	// symbols) and together cover the input.
	joined := ""
	for _, p := range parts {
		joined += p
	}
	assert.Equal(t, "new", joined)
}

func TestTokensForPartFallsBackToBytesOnMiss(t *testing.T) {
	v := newTestVocab([]string{"x"}, nil)
	v.ByteToken[byte('z')] = 5
	ids := v.tokensForPart("z")
	assert.Equal(t, []int{5}, ids)
}
