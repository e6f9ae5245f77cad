package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// currentSchemaVersion is bumped whenever persistedSession's shape
// changes incompatibly; LoadInto accepts only this version and fails with
// ErrSchemaUnsupported for any other (there is no older version to
// migrate).
const currentSchemaVersion = 1

// persistedSession is the on-disk representation of a Session's durable
// state, per spec.md §6.4: "UTF-8 JSON with a schema version field".
type persistedSession struct {
	SchemaVersion int       `json:"schema_version"`
	ID            string    `json:"id"`
	SystemPrompt  *Message  `json:"system_prompt,omitempty"`
	History       []Message `json:"history"`
	Usage         Usage     `json:"usage"`
}

// Save writes the session's durable state (system prompt, history, usage
// — not the live KV cache, which is process-local) to path using an
// atomic temp-file-then-rename so a crash mid-write never leaves a
// corrupt file in place.
func (s *Session) Save(path string) error {
	p := persistedSession{
		SchemaVersion: currentSchemaVersion,
		ID:            s.ID,
		SystemPrompt:  s.systemPrompt,
		History:       s.history,
		Usage:         s.usage,
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("session: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("session: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("session: rename: %w", err)
	}
	return nil
}

// LoadInto restores durable state from path into an already-constructed
// Session (the executor/tokenizer/sampler wiring is process state and
// isn't part of the file). The session's KV cache is not restored;
// callers must re-prefill from history if cache reuse is wanted.
func LoadInto(s *Session, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("session: read: %w", err)
	}

	var p persistedSession
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("session: unmarshal: %w", err)
	}

	switch p.SchemaVersion {
	case currentSchemaVersion:
		// current format, no migration needed
	default:
		return fmt.Errorf("%w: version %d", ErrSchemaUnsupported, p.SchemaVersion)
	}

	s.ID = p.ID
	s.systemPrompt = p.SystemPrompt
	s.history = p.History
	s.usage = p.Usage
	s.cachedTokens = nil
	return nil
}
