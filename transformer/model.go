package transformer

import (
	"github.com/nullstep/smq/fs/smq"
	"github.com/nullstep/smq/kernel"
	"github.com/nullstep/smq/quant"
)

// NormKind selects between the two normalization schemes spec.md §4.2
// names: RMSNorm (no mean subtraction, no bias) and LayerNorm (mean/var,
// learned bias).
type NormKind int

const (
	NormRMS NormKind = iota
	NormLayer
)

// ActivationKind selects the FFN nonlinearity.
type ActivationKind int

const (
	ActivationGELU ActivationKind = iota
	ActivationSwiGLU
	ActivationReLU
)

// Shape is the model geometry needed to drive the forward pass, mirroring
// smq.HyperParams but with parsed enums instead of free-form strings.
type Shape struct {
	VocabSize    int
	ContextMax   int
	Hidden       int
	QueryHeads   int
	KVHeads      int
	Layers       int
	Intermediate int
	HeadDim      int // Hidden / QueryHeads
	Norm         NormKind
	Activation   ActivationKind
	RopeTheta    float64 // 0 disables RoPE (learned/sinusoidal positions assumed handled by caller)
}

// LayerWeights are the quantized tensors for a single transformer layer.
type LayerWeights struct {
	AttnNormWeight []float32
	AttnNormBias   []float32 // nil for RMSNorm

	WQ, WK, WV, WO *quant.Tensor

	FFNNormWeight []float32
	FFNNormBias   []float32 // nil for RMSNorm

	// WGate/WUp are used for SwiGLU; W1 is used for GELU/ReLU (single
	// up-projection). WDown is always the down-projection back to Hidden.
	WGate, WUp, W1, WDown *quant.Tensor
}

// Model is a fully loaded transformer: embedding table, per-layer weights,
// final norm, and output projection.
type Model struct {
	Shape Shape

	EmbedTokens *quant.Tensor // [V, H]
	Layers      []LayerWeights

	FinalNormWeight []float32
	FinalNormBias   []float32

	OutputProj *quant.Tensor // [V, H]; may alias EmbedTokens for tied embeddings

	KernelConfig kernel.Config
}

// FromHyperParams derives a transformer.Shape from the container's
// metadata, parsing the norm/activation strings recorded per spec.md §6.1.
func FromHyperParams(h smq.HyperParams) (Shape, error) {
	if h.HQ == 0 {
		return Shape{}, ErrShapeMismatch
	}
	s := Shape{
		VocabSize:    h.V,
		ContextMax:   h.CMax,
		Hidden:       h.H,
		QueryHeads:   h.HQ,
		KVHeads:      h.HKV,
		Layers:       h.L,
		Intermediate: h.I,
		HeadDim:      h.H / h.HQ,
		RopeTheta:    h.RopeTheta,
	}
	switch h.Norm {
	case "layernorm":
		s.Norm = NormLayer
	default:
		s.Norm = NormRMS
	}
	switch h.Activation {
	case "swiglu":
		s.Activation = ActivationSwiGLU
	case "relu":
		s.Activation = ActivationReLU
	default:
		s.Activation = ActivationGELU
	}
	return s, nil
}
