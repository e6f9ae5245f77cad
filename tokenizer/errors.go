// Package tokenizer implements the two tokenizer modes of spec.md §4.8:
// a token-table-only mode (longest-prefix match plus single-byte
// fallback) and a BPE mode (GPT-2-style byte-level encoding, greedy
// highest-priority merge application). Both are grounded on the byte-level
// BPE merge loop in the teacher's x/imagegen/tokenizer package
// (encodeBPEMerge's rank-ordered pairwise merge, byte-to-rune table,
// byte-fallback-on-miss), generalized from its single-merge-pass scan to a
// priority-queue-driven merge application suited to long sequences.
package tokenizer

import "errors"

var (
	ErrVocabMissing    = errors.New("tokenizer: vocab missing from model metadata")
	ErrMergesMissing   = errors.New("tokenizer: merges missing from model metadata")
	ErrInvalidToken    = errors.New("tokenizer: token id out of range")
)
