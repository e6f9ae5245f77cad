package session

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullstep/smq/executor"
	"github.com/nullstep/smq/fs/smq"
	"github.com/nullstep/smq/internal/telemetry"
	"github.com/nullstep/smq/kernel"
	"github.com/nullstep/smq/kvcache"
	"github.com/nullstep/smq/quant"
	"github.com/nullstep/smq/sampler"
	"github.com/nullstep/smq/tokenizer"
	"github.com/nullstep/smq/transformer"
)

func f32Tensor(rows, cols int, v float32) *quant.Tensor {
	data := make([]byte, rows*cols*4)
	for i := 0; i < rows*cols; i++ {
		binary.LittleEndian.PutUint32(data[i*4:i*4+4], math.Float32bits(v))
	}
	return &quant.Tensor{Scheme: quant.F32, Shape: []int{rows, cols}, Data: data}
}

const testVocabSize = 257 // 256 single-byte fallback tokens + 1 EOS

func newTestTokenizer(t *testing.T) *tokenizer.Tokenizer {
	t.Helper()
	vocab := make([]string, 256, testVocabSize)
	for b := 0; b < 256; b++ {
		vocab[b] = singleByteToken(byte(b))
	}
	vocab = append(vocab, "<eos>")
	eos := 256

	tok, err := tokenizer.New(smq.TokenizerMetadata{
		Mode:     "token_table",
		Vocab:    vocab,
		Specials: smq.TokenizerSpecials{EOS: &eos},
	}, telemetry.NopSink{})
	require.NoError(t, err)
	return tok
}

func singleByteToken(b byte) string {
	return tokenizer.ByteToken(b)
}

func tinyTestModel() *transformer.Model {
	shape := transformer.Shape{
		VocabSize: testVocabSize, ContextMax: 64, Hidden: 4, QueryHeads: 2, KVHeads: 1,
		Layers: 1, Intermediate: 4, HeadDim: 2, Norm: transformer.NormRMS,
		Activation: transformer.ActivationSwiGLU, RopeTheta: 10000,
	}
	layer := transformer.LayerWeights{
		AttnNormWeight: []float32{1, 1, 1, 1},
		WQ:             f32Tensor(4, 4, 0.1),
		WK:             f32Tensor(2, 4, 0.1),
		WV:             f32Tensor(2, 4, 0.1),
		WO:             f32Tensor(4, 4, 0.1),
		FFNNormWeight:  []float32{1, 1, 1, 1},
		WGate:          f32Tensor(4, 4, 0.05),
		WUp:            f32Tensor(4, 4, 0.05),
		WDown:          f32Tensor(4, 4, 0.05),
	}
	return &transformer.Model{
		Shape:           shape,
		EmbedTokens:     f32Tensor(testVocabSize, 4, 0.1),
		Layers:          []transformer.LayerWeights{layer},
		FinalNormWeight: []float32{1, 1, 1, 1},
		OutputProj:      f32Tensor(testVocabSize, 4, 0.2),
		KernelConfig:    kernel.Config{DeterministicMode: true},
	}
}

func newTestSession(t *testing.T, sink telemetry.Sink) *Session {
	t.Helper()
	model := tinyTestModel()
	pool := kvcache.NewPool(4)
	shape := kvcache.Shape{Layers: model.Shape.Layers, KVHeads: model.Shape.KVHeads, HeadDim: model.Shape.HeadDim}
	ec := executor.NewExecutionContext(model, pool, shape, 64, sink)
	tok := newTestTokenizer(t)
	return New("sess-1", ec, tok, sampler.Options{Temperature: 0, EOSToken: -1}, nil, 0, KeepAllPolicy{}, sink)
}

func TestGenerateFirstTurnProducesBoundedCompletion(t *testing.T) {
	s := newTestSession(t, telemetry.NopSink{})
	resp, err := s.Generate(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Options:  Options{MaxNewTokens: 3, Temperature: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, FinishLength, resp.FinishReason)
	assert.Equal(t, 3, s.usage.CompletionTokens)
}

func TestGenerateSecondTurnContinuesExistingCache(t *testing.T) {
	var kinds []string
	sink := sinkFunc(func(e telemetry.Event) { kinds = append(kinds, e.Kind) })
	s := newTestSession(t, sink)

	_, err := s.Generate(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Options:  Options{MaxNewTokens: 1, Temperature: 0},
	})
	require.NoError(t, err)

	_, err = s.Generate(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "again"}},
		Options:  Options{MaxNewTokens: 1, Temperature: 0},
	})
	require.NoError(t, err)

	assert.Contains(t, kinds, "prefill")
	assert.Contains(t, kinds, "prefill_continue")
}

func TestResetClearsHistoryButKeepsSystemPrompt(t *testing.T) {
	s := newTestSession(t, telemetry.NopSink{})
	s.SetSystemPrompt("be terse")
	_, err := s.Generate(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Options:  Options{MaxNewTokens: 1, Temperature: 0},
	})
	require.NoError(t, err)

	s.Reset()
	assert.Empty(t, s.history)
	assert.NotNil(t, s.systemPrompt)
	assert.Equal(t, "be terse", s.systemPrompt.Content)
}

func TestGenerateWithTopLogprobsPopulatesChatResponse(t *testing.T) {
	s := newTestSession(t, telemetry.NopSink{})
	resp, err := s.Generate(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Options:  Options{MaxNewTokens: 2, Temperature: 0, TopLogprobs: 3},
	})
	require.NoError(t, err)
	require.Len(t, resp.Logprobs, 2)
	for _, step := range resp.Logprobs {
		assert.LessOrEqual(t, len(step.TopLogprobs), 3)
		assert.NotEmpty(t, step.Token)
	}
}

type sinkFunc func(telemetry.Event)

func (f sinkFunc) Emit(e telemetry.Event) { f(e) }
