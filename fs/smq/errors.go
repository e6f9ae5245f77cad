// Package smq implements the native on-disk model container (spec.md §6.1):
// a magic-prefixed header, JSON metadata block, and a flat tensor table
// whose payloads are read directly into package quant's block layouts.
package smq

import "errors"

var (
	ErrBadMagic       = errors.New("smq: bad magic")
	ErrShortRead      = errors.New("smq: short read")
	ErrCorrupt        = errors.New("smq: corrupt container")
	ErrUnsupportedVer = errors.New("smq: unsupported container version")
	ErrTensorNotFound = errors.New("smq: tensor not found")
)
