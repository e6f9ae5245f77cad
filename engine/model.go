package engine

import (
	"fmt"
	"io"
	"os"

	"github.com/nullstep/smq/fs/smq"
	"github.com/nullstep/smq/quant"
	"github.com/nullstep/smq/transformer"
)

// ModelHandle is the decoded, weight-bound result of Engine.LoadModel: a
// ready transformer.Model plus the container metadata CreateSession needs
// to build the matching tokenizer.
type ModelHandle struct {
	Model    *transformer.Model
	Metadata smq.Metadata
}

// LoadModel reads an SMQ container from path and binds its tensor table to
// a transformer.Model by the layers.N.* / token_embd.weight / output.weight
// naming convention the container writer uses (fs/smq/container_test.go's
// sampleContainer).
func (e *Engine) LoadModel(path string) (ModelHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return ModelHandle{}, err
	}
	defer f.Close()
	return e.LoadModelFrom(f)
}

// LoadModelFrom behaves like LoadModel but reads from an already-open
// reader, for callers that stream the container from somewhere other than
// the local filesystem (e.g. an embedded asset or a network fetch).
func (e *Engine) LoadModelFrom(r io.Reader) (ModelHandle, error) {
	c, err := smq.Decode(r)
	if err != nil {
		return ModelHandle{}, err
	}

	shape, err := transformer.FromHyperParams(c.Metadata.HParams)
	if err != nil {
		return ModelHandle{}, err
	}

	model := &transformer.Model{Shape: shape, KernelConfig: e.kernelConfig}

	model.EmbedTokens, err = findTensor(c, "token_embd.weight")
	if err != nil {
		return ModelHandle{}, err
	}
	model.OutputProj, err = findTensor(c, "output.weight")
	if err != nil {
		// Tied embeddings: some architectures reuse the embedding table as
		// the output projection and never write a separate tensor for it.
		model.OutputProj = model.EmbedTokens
	}
	model.FinalNormWeight, err = findNormVector(c, "output_norm.weight")
	if err != nil {
		return ModelHandle{}, err
	}
	model.FinalNormBias, _ = findNormVector(c, "output_norm.bias")

	model.Layers = make([]transformer.LayerWeights, shape.Layers)
	for i := range model.Layers {
		lw, err := loadLayer(c, i, shape)
		if err != nil {
			return ModelHandle{}, err
		}
		model.Layers[i] = lw
	}

	return ModelHandle{Model: model, Metadata: c.Metadata}, nil
}

func loadLayer(c *smq.Container, i int, shape transformer.Shape) (transformer.LayerWeights, error) {
	var lw transformer.LayerWeights
	var err error

	prefix := fmt.Sprintf("layers.%d.", i)

	if lw.AttnNormWeight, err = findNormVector(c, prefix+"attn_norm.weight"); err != nil {
		return lw, err
	}
	lw.AttnNormBias, _ = findNormVector(c, prefix+"attn_norm.bias")

	if lw.WQ, err = findTensor(c, prefix+"attn_q.weight"); err != nil {
		return lw, err
	}
	if lw.WK, err = findTensor(c, prefix+"attn_k.weight"); err != nil {
		return lw, err
	}
	if lw.WV, err = findTensor(c, prefix+"attn_v.weight"); err != nil {
		return lw, err
	}
	if lw.WO, err = findTensor(c, prefix+"attn_o.weight"); err != nil {
		return lw, err
	}

	if lw.FFNNormWeight, err = findNormVector(c, prefix+"ffn_norm.weight"); err != nil {
		return lw, err
	}
	lw.FFNNormBias, _ = findNormVector(c, prefix+"ffn_norm.bias")

	if lw.WDown, err = findTensor(c, prefix+"ffn_down.weight"); err != nil {
		return lw, err
	}
	if shape.Activation == transformer.ActivationSwiGLU {
		if lw.WGate, err = findTensor(c, prefix+"ffn_gate.weight"); err != nil {
			return lw, err
		}
		if lw.WUp, err = findTensor(c, prefix+"ffn_up.weight"); err != nil {
			return lw, err
		}
	} else {
		if lw.W1, err = findTensor(c, prefix+"ffn_1.weight"); err != nil {
			return lw, err
		}
	}

	return lw, nil
}

func findTensor(c *smq.Container, name string) (*quant.Tensor, error) {
	i := c.Find(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: tensor %q", smq.ErrTensorNotFound, name)
	}
	return c.Tensor(i), nil
}

// findNormVector dequantizes a 1-D norm weight/bias tensor in full: norm
// vectors are Hidden-sized (not block-quantized in practice, but may be
// stored as F32/F16), far smaller than the matmul operands the fused
// kernels are built to stream block-by-block.
func findNormVector(c *smq.Container, name string) ([]float32, error) {
	t, err := findTensor(c, name)
	if err != nil {
		return nil, err
	}
	n, err := t.NumBlocks()
	if err != nil {
		return nil, err
	}
	out := make([]float32, 0, n*t.Scheme.BlockSize())
	for i := 0; i < n; i++ {
		block, err := t.Block(i)
		if err != nil {
			return nil, err
		}
		vals, err := quant.DequantizeBlock(t.Scheme, block)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}
