package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPretokenizeSplitsWordsAndTrailingSpace(t *testing.T) {
	chunks, err := pretokenize("Hello, world!")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", ",", " world", "!"}, chunks)
}

func TestPretokenizeKeepsSpaceAttachedToFollowingWord(t *testing.T) {
	chunks, err := pretokenize("a  b")
	require.NoError(t, err)
	// "a" then a single leading space attaches to "b"; the run of
	// whitespace not followed by non-space collapses via \s+(?!\S).
	assert.Equal(t, []string{"a", " ", " b"}, chunks)
}

func TestPretokenizeDigitsSplitFromLetters(t *testing.T) {
	chunks, err := pretokenize("v2 model")
	require.NoError(t, err)
	assert.Equal(t, []string{"v", "2", " model"}, chunks)
}
