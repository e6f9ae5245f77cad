package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleWithLogprobsGreedyReportsArgmaxFirst(t *testing.T) {
	s := NewState(Options{Temperature: 0, EOSToken: -1})
	tok, lp, err := s.SampleWithLogprobs([]float32{0.1, 5, 0.2, -3}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, tok)
	require.Len(t, lp, 2)
	assert.Equal(t, 1, lp[0].Token)
	assert.Greater(t, lp[0].Logprob, lp[1].Logprob)
}

func TestSampleWithLogprobsZeroTopKReturnsNone(t *testing.T) {
	s := NewState(Options{Temperature: 0, EOSToken: -1})
	_, lp, err := s.SampleWithLogprobs([]float32{1, 2, 3}, 0)
	require.NoError(t, err)
	assert.Nil(t, lp)
}

func TestSampleWithLogprobsAllLogprobsNonPositive(t *testing.T) {
	s := NewState(Options{Temperature: 1, TopK: 0, TopP: 1, Seed: 1, EOSToken: -1})
	_, lp, err := s.SampleWithLogprobs([]float32{1, 2, 3, 0.5}, 4)
	require.NoError(t, err)
	for _, e := range lp {
		assert.LessOrEqual(t, e.Logprob, float32(0))
	}
}
