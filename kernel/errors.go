// Package kernel implements the fused dequantize+matmul kernels, activation
// functions, normalization, softmax and rotary embeddings (spec L1).
//
// The numerical core — per-block dequantization fused directly into the
// matmul inner loop, with no full-tensor materialization — is grounded on
// the scalar Go reference in the retrieved corpus (ariannamethod/yent's
// yent-go-quant.go: MatMulQ4_0/MatMulQ8_0/MatMulQ6_K), generalized to the
// full scheme table and wrapped in the caller-provided-scratch and
// sequential/parallel split spec.md §4.2 requires.
package kernel

import "errors"

var (
	ErrShapeMismatch  = errors.New("kernel: shape mismatch")
	ErrSchemeMismatch = errors.New("kernel: unsupported scheme for this kernel")
)
