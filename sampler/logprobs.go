package sampler

import (
	"math"
	"sort"
)

// Logprob pairs a token id with its log-probability under the
// distribution logprobs were computed from, per spec.md SPEC_FULL.md's
// logprobs supplemental feature, grounded on the teacher's
// runner/ollamarunner/runner_batch.go calculateLogprobs and
// llm/server_inference.go's Logprob/TokenLogprob shapes.
type Logprob struct {
	Token   int
	Logprob float32
}

// SampleWithLogprobs behaves like Sample but additionally reports the
// topK highest-probability tokens (including the sampled one, if it
// ranks among them) and their log-probabilities. The reported
// distribution reflects repetition penalty and temperature but not the
// topK/topP sampling truncation, so logprobs describe the model's
// actual belief rather than the narrowed sampling set.
func (s *State) SampleWithLogprobs(logits []float32, topK int) (int, []Logprob, error) {
	for _, v := range logits {
		if math.IsNaN(float64(v)) {
			return 0, nil, ErrInferenceFailure
		}
	}

	s.applyRepetitionPenalty(logits)

	if s.opts.Temperature == 0 {
		lp := topLogprobs(softmax(logits), topK)
		tok, err := s.argmax(logits)
		return tok, lp, err
	}

	s.applyTemperature(logits)
	lp := topLogprobs(softmax(logits), topK)

	s.applyTopK(logits)
	probs := s.applyTopP(logits)
	tok := s.categoricalSample(probs)
	s.recordToken(tok)
	s.count++
	return tok, lp, nil
}

// topLogprobs returns the topK entries of probs by descending
// probability, converted to natural-log space. A zero probability maps
// to -Inf rather than being skipped, matching how an unreachable token
// is reported by the teacher's completion API.
func topLogprobs(probs []float32, topK int) []Logprob {
	if topK <= 0 {
		return nil
	}
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })

	if topK > len(idx) {
		topK = len(idx)
	}
	out := make([]Logprob, 0, topK)
	for _, i := range idx[:topK] {
		p := probs[i]
		lp := float32(math.Inf(-1))
		if p > 0 {
			lp = float32(math.Log(float64(p)))
		}
		out = append(out, Logprob{Token: i, Logprob: lp})
	}
	return out
}
