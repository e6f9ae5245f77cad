package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func countWords(s string) int {
	n := 0
	word := false
	for _, r := range s {
		if r == ' ' {
			word = false
			continue
		}
		if !word {
			n++
			word = true
		}
	}
	return n
}

func TestKeepAllPolicyKeepsEverything(t *testing.T) {
	sys := &Message{Role: RoleSystem, Content: "S"}
	history := []Message{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}}
	out := KeepAllPolicy{}.Select(sys, history, countWords)
	assert.Equal(t, 3, len(out))
	assert.Equal(t, RoleSystem, out[0].Role)
}

func TestKeepLastNTurnsAlwaysKeepsSystem(t *testing.T) {
	sys := &Message{Role: RoleSystem, Content: "S"}
	history := make([]Message, 6)
	for i := range history {
		history[i] = Message{Role: RoleUser, Content: "x"}
	}
	out := KeepLastNTurnsPolicy{N: 2}.Select(sys, history, countWords)
	assert.Equal(t, 3, len(out)) // system + 2
	assert.Equal(t, RoleSystem, out[0].Role)
}

func TestSlidingWindowStopsBeforeBudgetExceeded(t *testing.T) {
	sys := &Message{Role: RoleSystem, Content: "s"} // 1 token
	history := make([]Message, 10)
	turn := "a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a a" // 50 words
	for i := range history {
		history[i] = Message{Role: RoleUser, Content: turn}
	}
	out := SlidingWindowPolicy{MaxTokens: 101}.Select(sys, history, countWords)
	// system (1) + at most 2 full 50-word turns = 101
	assert.LessOrEqual(t, len(out), 3)
	assert.Equal(t, RoleSystem, out[0].Role)
	// chronological order preserved: last kept turn is the most recent one
	assert.Equal(t, RoleUser, out[len(out)-1].Role)
}

func TestSlidingWindowDeterministic(t *testing.T) {
	sys := &Message{Role: RoleSystem, Content: "s"}
	history := []Message{{Content: "a b"}, {Content: "c d"}, {Content: "e f"}}
	p := SlidingWindowPolicy{MaxTokens: 5}
	out1 := p.Select(sys, history, countWords)
	out2 := p.Select(sys, history, countWords)
	assert.Equal(t, out1, out2)
}
