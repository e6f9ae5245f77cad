package smq

// HyperParams are the model shape parameters carried in the metadata JSON
// block, per spec.md §6.1. Field names match the one-letter/abbreviated
// spec vocabulary (V, C_max, H, h_q, h_kv, L, I) directly so the container
// format stays byte-for-byte compatible with the spec's worked examples.
type HyperParams struct {
	V         int     `json:"V"`              // vocab size
	CMax      int     `json:"C_max"`          // max context length
	H         int     `json:"H"`              // hidden size
	HQ        int     `json:"h_q"`             // number of query heads
	HKV       int     `json:"h_kv"`            // number of key/value heads (GQA/MQA)
	L         int     `json:"L"`               // number of transformer layers
	I         int     `json:"I"`               // FFN intermediate size
	Norm      string  `json:"norm"`            // "rmsnorm" | "layernorm"
	Activation string `json:"activation"`      // "gelu" | "swiglu" | "relu"
	RopeTheta float64 `json:"rope_theta,omitempty"`
}

// TokenizerSpecials carries the optional special-token ids recognized by
// package tokenizer.
type TokenizerSpecials struct {
	BOS *int `json:"bos,omitempty"`
	EOS *int `json:"eos,omitempty"`
	PAD *int `json:"pad,omitempty"`
	UNK *int `json:"unk,omitempty"`
}

// TokenizerMetadata describes which tokenizer mode to construct and the
// data it needs, per spec.md §5.7.
type TokenizerMetadata struct {
	Mode     string            `json:"mode"` // "bpe" | "token_table"
	Vocab    []string          `json:"vocab"`
	Merges   []string          `json:"merges,omitempty"`
	Specials TokenizerSpecials `json:"specials"`
}

// Metadata is the UTF-8 JSON metadata block embedded in an SMQ container
// header.
type Metadata struct {
	Name      string            `json:"name"`
	Arch      string            `json:"arch"`
	HParams   HyperParams       `json:"hparams"`
	Tokenizer TokenizerMetadata `json:"tokenizer"`
}
