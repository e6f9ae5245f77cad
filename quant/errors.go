package quant

import "errors"

// Error kinds for the quantized tensor store, per spec.md §4.1 and §7.
var (
	ErrUnsupportedScheme = errors.New("unsupported quantization scheme")
	ErrInvalidShape      = errors.New("tensor element count is not a multiple of the scheme's block size")
	ErrShortRead         = errors.New("truncated block payload")
)
