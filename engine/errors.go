// Package engine is the top-level embedding API spec.md §6.3 describes:
// create_engine/load_model/create_session/generate/stream/reset/info. It is
// a thin factory over fs/smq (container decode), transformer (weight
// binding), and session (chat turn execution) — the actual inference work
// lives in those packages; engine only wires them together from an
// on-disk model path and a SessionOptions value.
package engine

import "errors"

var (
	// ErrModelNotLoaded is returned by CreateSession before LoadModel has
	// produced a ModelHandle.
	ErrModelNotLoaded = errors.New("engine: model not loaded")

	// ErrUnknownContextPolicy is returned when SessionOptions.ContextPolicy
	// names a policy kind engine does not recognize.
	ErrUnknownContextPolicy = errors.New("engine: unknown context policy")
)
