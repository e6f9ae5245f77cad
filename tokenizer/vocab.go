package tokenizer

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/nullstep/smq/fs/smq"
	"github.com/nullstep/smq/internal/telemetry"
)

// Specials carries the optional special-token ids recognized during
// construction and special-token-aware encoding.
type Specials struct {
	BOS, EOS, PAD, UNK int // -1 if undefined
}

// Vocab is the shared vocabulary data both tokenizer modes read from:
// token string <-> id maps, a single-byte fallback table, and (BPE mode
// only) merge ranks in priority order.
type Vocab struct {
	TokenToID map[string]int
	IDToToken []string

	// ByteToken maps a raw byte value to a single-byte fallback token id,
	// or -1 if the model's vocabulary has no token for that byte.
	ByteToken [256]int

	// Merges preserves insertion (= priority) order: the pair that merges
	// first was inserted first, mirroring the rank ordering in the
	// model's merges list. Keyed by "left right" (space-joined token
	// strings), matching the teacher vocabulary's mergeKey convention.
	Merges *orderedmap.OrderedMap[string, int]

	Specials Specials
}

// FromMetadata builds a Vocab from the SMQ container's tokenizer metadata,
// emitting VocabMissing/MergesMissing/FallbackByteBpe diagnostics to sink
// per spec.md §4.8.
func FromMetadata(meta smq.TokenizerMetadata, sink telemetry.Sink) (*Vocab, error) {
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	if len(meta.Vocab) == 0 {
		sink.Emit(telemetry.Event{Kind: "VocabMissing"})
		return nil, ErrVocabMissing
	}

	v := &Vocab{
		TokenToID: make(map[string]int, len(meta.Vocab)),
		IDToToken: meta.Vocab,
		Merges:    orderedmap.New[string, int](),
	}
	for i := range v.ByteToken {
		v.ByteToken[i] = -1
	}
	for id, tok := range meta.Vocab {
		v.TokenToID[tok] = id
		if r := []rune(tok); len(r) == 1 {
			if b, ok := runeToByte[r[0]]; ok {
				v.ByteToken[b] = id
			}
		}
	}

	v.Specials = Specials{BOS: -1, EOS: -1, PAD: -1, UNK: -1}
	if meta.Specials.BOS != nil {
		v.Specials.BOS = *meta.Specials.BOS
	}
	if meta.Specials.EOS != nil {
		v.Specials.EOS = *meta.Specials.EOS
	}
	if meta.Specials.PAD != nil {
		v.Specials.PAD = *meta.Specials.PAD
	}
	if meta.Specials.UNK != nil {
		v.Specials.UNK = *meta.Specials.UNK
	}

	if meta.Mode == "bpe" {
		if len(meta.Merges) == 0 {
			sink.Emit(telemetry.Event{Kind: "MergesMissing"})
			sink.Emit(telemetry.Event{Kind: "FallbackByteBpe"})
			return v, nil
		}
		for rank, line := range meta.Merges {
			v.Merges.Set(line, rank)
		}
	}

	return v, nil
}

// mergeRank returns the priority rank for merging left and right (lower is
// higher priority), and whether that merge is permitted at all.
func (v *Vocab) mergeRank(left, right string) (int, bool) {
	return v.Merges.Get(left + " " + right)
}
