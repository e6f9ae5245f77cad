package tokenizer

import (
	"strings"

	"github.com/nullstep/smq/fs/smq"
	"github.com/nullstep/smq/internal/telemetry"
)

// SpecialToken is a special-token insertion request for EncodeWithSpecial:
// ID is spliced into the output sequence at Pos (measured in already-built
// output tokens; Pos == -1 means append at the end).
type SpecialToken struct {
	ID  int
	Pos int
}

// Tokenizer implements spec.md §4.8's encode/decode surface over either
// BPE or token-table vocabularies.
type Tokenizer struct {
	vocab *Vocab
	bpe   bool
}

// New builds a Tokenizer from the container's tokenizer metadata.
func New(meta smq.TokenizerMetadata, sink telemetry.Sink) (*Tokenizer, error) {
	v, err := FromMetadata(meta, sink)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{vocab: v, bpe: meta.Mode == "bpe"}, nil
}

// NewFromVocab wraps an already-built Vocab into a Tokenizer, using BPE
// encoding when bpeMode is true and token-table encoding otherwise.
func NewFromVocab(v *Vocab, bpeMode bool) *Tokenizer {
	return &Tokenizer{vocab: v, bpe: bpeMode}
}

// Encode splits s into pretokenizer chunks and BPE- or table-encodes each
// chunk independently (merges and longest-prefix matches never cross a
// chunk boundary).
func (t *Tokenizer) Encode(s string) ([]int, error) {
	chunks, err := pretokenize(s)
	if err != nil {
		return nil, err
	}

	var ids []int
	for _, chunk := range chunks {
		encoded := encodeBytesToRunes([]byte(chunk))
		if t.bpe {
			for _, part := range t.vocab.bpeEncodeChunk(encoded) {
				ids = append(ids, t.vocab.tokensForPart(part)...)
			}
		} else {
			ids = append(ids, t.vocab.tokenTableEncode(encoded)...)
		}
	}
	return ids, nil
}

// EncodeWithSpecial encodes s and then splices the requested special
// tokens into the resulting id sequence at their requested positions,
// processed in ascending Pos order so earlier insertions don't shift
// later ones out from under them; Pos == -1 appends at the end.
func (t *Tokenizer) EncodeWithSpecial(s string, specials []SpecialToken) ([]int, error) {
	ids, err := t.Encode(s)
	if err != nil {
		return nil, err
	}

	ordered := make([]SpecialToken, len(specials))
	copy(ordered, specials)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j-1].Pos > ordered[j].Pos && ordered[j-1].Pos != -1; j-- {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
		}
	}

	for _, sp := range ordered {
		pos := sp.Pos
		if pos < 0 || pos > len(ids) {
			pos = len(ids)
		}
		ids = append(ids[:pos], append([]int{sp.ID}, ids[pos:]...)...)
	}
	return ids, nil
}

// EOSToken reports the model's end-of-sequence token id, if defined.
func (t *Tokenizer) EOSToken() (int, bool) {
	if t.vocab.Specials.EOS < 0 {
		return 0, false
	}
	return t.vocab.Specials.EOS, true
}

// Decode renders ids back to a string, returning ErrInvalidToken if any id
// is out of range.
func (t *Tokenizer) Decode(ids []int) (string, error) {
	var sb strings.Builder
	for _, id := range ids {
		if id < 0 || id >= len(t.vocab.IDToToken) {
			return "", ErrInvalidToken
		}
		sb.Write(decodeRunesToBytes(t.vocab.IDToToken[id]))
	}
	return sb.String(), nil
}

// DecodeLossy renders ids back to a string, substituting U+FFFD for any
// out-of-range id instead of failing.
func (t *Tokenizer) DecodeLossy(ids []int) string {
	var sb strings.Builder
	for _, id := range ids {
		if id < 0 || id >= len(t.vocab.IDToToken) {
			sb.WriteRune('�')
			continue
		}
		sb.Write(decodeRunesToBytes(t.vocab.IDToToken[id]))
	}
	return sb.String()
}
