package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := &Session{
		ID:           "sess-1",
		systemPrompt: &Message{Role: RoleSystem, Content: "be nice"},
		history:      []Message{{Role: RoleUser, Content: "hi"}},
		usage:        Usage{PromptTokens: 3, CompletionTokens: 5},
	}

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, s.Save(path))

	loaded := &Session{}
	require.NoError(t, LoadInto(loaded, path))

	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, s.systemPrompt.Content, loaded.systemPrompt.Content)
	assert.Equal(t, s.history, loaded.history)
	assert.Equal(t, s.usage, loaded.usage)
}

func TestLoadRejectsUnsupportedSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := &Session{ID: "x"}
	require.NoError(t, s.Save(path))

	// Simulate a future schema version the loader doesn't recognize.
	data := []byte(`{"schema_version": 99, "id": "x", "history": []}`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded := &Session{}
	err := LoadInto(loaded, path)
	assert.ErrorIs(t, err, ErrSchemaUnsupported)
}
