package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullstep/smq/fs/smq"
	"github.com/nullstep/smq/internal/telemetry"
	"github.com/nullstep/smq/kernel"
	"github.com/nullstep/smq/quant"
	"github.com/nullstep/smq/session"
	"github.com/nullstep/smq/tokenizer"
)

func f32Vec(n int, v float32) []byte {
	data := make([]byte, n*4)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(data[i*4:i*4+4], math.Float32bits(v))
	}
	return data
}

func f32Entry(name string, rows, cols int, v float32) smq.TensorEntry {
	return smq.TensorEntry{Name: name, Scheme: quant.F32, Shape: []int{rows, cols}, Data: f32Vec(rows*cols, v)}
}

// testContainerBytes builds a one-layer SMQ container exercising the
// layers.N.*/token_embd.weight/output.weight naming convention
// engine.LoadModelFrom binds against.
func testContainerBytes(t *testing.T) []byte {
	t.Helper()

	const vocab = 257 // 256 single-byte fallback tokens + <eos>
	vocabNames := make([]string, vocab-1, vocab)
	for b := 0; b < 256; b++ {
		vocabNames[b] = tokenizer.ByteToken(byte(b))
	}
	vocabNames = append(vocabNames, "<eos>")
	eos := 256

	c := &smq.Container{
		Version: 1,
		Metadata: smq.Metadata{
			Name: "tiny", Arch: "llama",
			HParams: smq.HyperParams{
				V: vocab, CMax: 64, H: 4, HQ: 2, HKV: 1, L: 1, I: 4,
				Norm: "rmsnorm", Activation: "swiglu", RopeTheta: 10000,
			},
			Tokenizer: smq.TokenizerMetadata{
				Mode: "token_table", Vocab: vocabNames, Specials: smq.TokenizerSpecials{EOS: &eos},
			},
		},
		Tensors: []smq.TensorEntry{
			f32Entry("token_embd.weight", vocab, 4, 0.1),
			f32Entry("output_norm.weight", 1, 4, 1),

			f32Entry("layers.0.attn_norm.weight", 1, 4, 1),
			f32Entry("layers.0.attn_q.weight", 4, 4, 0.1),
			f32Entry("layers.0.attn_k.weight", 2, 4, 0.1),
			f32Entry("layers.0.attn_v.weight", 2, 4, 0.1),
			f32Entry("layers.0.attn_o.weight", 4, 4, 0.1),
			f32Entry("layers.0.ffn_norm.weight", 1, 4, 1),
			f32Entry("layers.0.ffn_gate.weight", 4, 4, 0.05),
			f32Entry("layers.0.ffn_up.weight", 4, 4, 0.05),
			f32Entry("layers.0.ffn_down.weight", 4, 4, 0.05),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, smq.Encode(&buf, c))
	return buf.Bytes()
}

func newTestEngine(t *testing.T) (*Engine, ModelHandle) {
	t.Helper()
	e, err := New(DefaultEngineOptions(), kernel.Config{DeterministicMode: true}, telemetry.NopSink{})
	require.NoError(t, err)

	h, err := e.LoadModelFrom(bytes.NewReader(testContainerBytes(t)))
	require.NoError(t, err)
	return e, h
}

func TestLoadModelFromBindsTiedOutputProjection(t *testing.T) {
	_, h := newTestEngine(t)
	assert.Same(t, h.Model.EmbedTokens, h.Model.OutputProj)
	assert.Equal(t, 1, h.Model.Shape.Layers)
	assert.Len(t, h.Model.Layers[0].AttnNormWeight, 4)
}

func TestCreateSessionGeneratesBoundedCompletion(t *testing.T) {
	e, h := newTestEngine(t)
	opts := DefaultSessionOptions()
	opts.Temperature = 0
	opts.MaxNewTokens = 3

	sess, err := e.CreateSession(h, opts)
	require.NoError(t, err)

	resp, err := sess.Generate(context.Background(), session.ChatRequest{
		Messages: []session.Message{{Role: session.RoleUser, Content: "hi"}},
		Options:  session.Options{MaxNewTokens: 3, Temperature: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, session.FinishLength, resp.FinishReason)
}

func TestCreateSessionWithoutModelFails(t *testing.T) {
	e, err := New(DefaultEngineOptions(), kernel.Config{}, telemetry.NopSink{})
	require.NoError(t, err)
	_, err = e.CreateSession(ModelHandle{}, DefaultSessionOptions())
	assert.ErrorIs(t, err, ErrModelNotLoaded)
}

func TestCreateSessionUnknownContextPolicyFails(t *testing.T) {
	e, h := newTestEngine(t)
	opts := DefaultSessionOptions()
	opts.ContextPolicy = "bogus"
	_, err := e.CreateSession(h, opts)
	assert.ErrorIs(t, err, ErrUnknownContextPolicy)
}
