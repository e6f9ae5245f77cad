package sampler

import (
	"math"
	"math/rand"
	"sort"
)

// Options configures one Sampler's pipeline, matching the SessionOptions
// sampling keys in spec.md §6.3.
type Options struct {
	Temperature        float32
	TopK               int
	TopP               float32
	RepetitionPenalty  float32
	RepetitionWindow   int
	Seed               uint64
	EOSToken           int  // -1 if undefined
	SpecialTokens      map[int]bool
}

// State is the mutable per-session sampling state threaded across calls:
// the recent-token history used by the repetition penalty, and the
// decoded-token counter used to derive a deterministic per-call RNG seed.
type State struct {
	opts    Options
	history []int // ring-like recent-token window, most recent last
	count   uint64
}

// NewState constructs sampling state for a session.
func NewState(opts Options) *State {
	return &State{opts: opts}
}

// Sample runs the full pipeline over logits (length V, mutated in place)
// and returns the chosen token id, per spec.md §4.6.
func (s *State) Sample(logits []float32) (int, error) {
	for _, v := range logits {
		if math.IsNaN(float64(v)) {
			return 0, ErrInferenceFailure
		}
	}

	s.applyRepetitionPenalty(logits)

	if s.opts.Temperature == 0 {
		return s.argmax(logits)
	}
	s.applyTemperature(logits)
	s.applyTopK(logits)
	probs := s.applyTopP(logits)

	tok := s.categoricalSample(probs)
	s.recordToken(tok)
	s.count++
	return tok, nil
}

func (s *State) argmax(logits []float32) (int, error) {
	best := 0
	for i, v := range logits {
		if v > logits[best] {
			best = i
		}
	}
	if math.IsInf(float64(logits[best]), -1) {
		tok := 0
		if s.opts.EOSToken >= 0 {
			tok = s.opts.EOSToken
		}
		s.recordToken(tok)
		s.count++
		return tok, nil
	}
	s.recordToken(best)
	s.count++
	return best, nil
}

func (s *State) applyRepetitionPenalty(logits []float32) {
	p := s.opts.RepetitionPenalty
	if p == 0 || p == 1 {
		return
	}
	window := s.opts.RepetitionWindow
	start := 0
	if len(s.history) > window {
		start = len(s.history) - window
	}
	seen := make(map[int]bool, len(s.history)-start)
	for _, t := range s.history[start:] {
		seen[t] = true
	}
	for tok := range seen {
		if s.opts.SpecialTokens[tok] {
			continue
		}
		if tok < 0 || tok >= len(logits) {
			continue
		}
		logits[tok] /= p
	}
}

func (s *State) applyTemperature(logits []float32) {
	t := s.opts.Temperature
	for i := range logits {
		logits[i] /= t
	}
}

func (s *State) applyTopK(logits []float32) {
	k := s.opts.TopK
	if k <= 0 || k >= len(logits) {
		return
	}
	idx := make([]int, len(logits))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return logits[idx[a]] > logits[idx[b]] })
	for _, i := range idx[k:] {
		logits[i] = float32(math.Inf(-1))
	}
}

// applyTopP converts logits to a softmax probability distribution, then
// zeroes all but the smallest prefix (by descending probability) whose
// cumulative mass reaches TopP, renormalizing what remains.
func (s *State) applyTopP(logits []float32) []float32 {
	probs := softmax(logits)
	p := s.opts.TopP
	if p <= 0 || p >= 1 {
		return probs
	}

	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })

	var cum float32
	cutoff := len(idx)
	for i, id := range idx {
		cum += probs[id]
		if cum >= p {
			cutoff = i + 1
			break
		}
	}

	kept := make([]float32, len(probs))
	var sum float32
	for _, id := range idx[:cutoff] {
		kept[id] = probs[id]
		sum += probs[id]
	}
	if sum > 0 {
		for i := range kept {
			kept[i] /= sum
		}
	}
	return kept
}

func softmax(logits []float32) []float32 {
	out := make([]float32, len(logits))
	max := float32(math.Inf(-1))
	for _, v := range logits {
		if v > max {
			max = v
		}
	}
	var sum float32
	for i, v := range logits {
		e := float32(math.Exp(float64(v - max)))
		out[i] = e
		sum += e
	}
	if sum == 0 {
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// categoricalSample draws from probs using a deterministic RNG seeded from
// (session_seed, decoded_tokens_count), per spec.md §4.6's reproducibility
// requirement. All-zero probs (every logit was -inf) falls back to EOS if
// defined, else token 0.
func (s *State) categoricalSample(probs []float32) int {
	var total float32
	for _, p := range probs {
		total += p
	}
	if total == 0 {
		if s.opts.EOSToken >= 0 {
			return s.opts.EOSToken
		}
		return 0
	}

	rng := rand.New(rand.NewSource(deriveSeed(s.opts.Seed, s.count)))
	target := rng.Float32() * total
	var cum float32
	for i, p := range probs {
		cum += p
		if cum >= target {
			return i
		}
	}
	return len(probs) - 1
}

// deriveSeed combines the session seed and decode step into a single
// stream seed using a SplitMix64-style mix, so consecutive calls with the
// same session seed produce an independent, reproducible sequence.
func deriveSeed(sessionSeed uint64, step uint64) int64 {
	z := sessionSeed + step*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return int64(z)
}

func (s *State) recordToken(tok int) {
	s.history = append(s.history, tok)
	if max := s.opts.RepetitionWindow * 4; max > 0 && len(s.history) > max {
		s.history = s.history[len(s.history)-s.opts.RepetitionWindow:]
	}
}
