// Package session implements the Chat Session contract of spec.md §4.7: a
// session wraps an executor.ExecutionContext plus tokenizer and sampler
// state across turns, applies a pluggable context policy to the
// accumulated message history before each prefill, and persists to disk
// using the atomic temp-then-rename JSON write pattern spec.md §6.4
// mandates.
package session

import "errors"

var (
	ErrSessionInUse      = errors.New("session: concurrent access on a session")
	ErrBudgetExceeded    = errors.New("session: budget exceeded")
	ErrInvalidOutput     = errors.New("session: response does not match json schema")
	ErrSchemaUnsupported = errors.New("session: persisted schema version unsupported")
	ErrNotFound          = errors.New("session: not found")
)
