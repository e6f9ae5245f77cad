package quant

// Tensor is a quantized weight tensor: a logical shape, a scheme, and the
// raw on-disk block payload. It owns no dequantized copy — readers must go
// through Block or the fused kernels in package kernel.
type Tensor struct {
	Name   string
	Scheme Scheme
	Shape  []int // row-major; Shape[len(Shape)-1] is the innermost (contiguous) dimension
	Data   []byte
}

// Elements returns the total logical element count.
func (t *Tensor) Elements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// SizeBytes computes the on-disk byte size for a tensor of the given scheme
// and shape. It fails with ErrInvalidShape if the element count is not a
// multiple of the scheme's block size, per spec.md §4.1.
func SizeBytes(scheme Scheme, shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return sizeBytesN(scheme, n)
}

func sizeBytesN(scheme Scheme, n int) (int, error) {
	bs := scheme.BlockSize()
	if bs == 0 {
		return 0, ErrUnsupportedScheme
	}
	if n%bs != 0 {
		return 0, ErrInvalidShape
	}
	return (n / bs) * scheme.BytesPerBlock(), nil
}

// NumBlocks returns the number of blocks backing this tensor.
func (t *Tensor) NumBlocks() (int, error) {
	n := t.Elements()
	bs := t.Scheme.BlockSize()
	if bs == 0 {
		return 0, ErrUnsupportedScheme
	}
	if n%bs != 0 {
		return 0, ErrInvalidShape
	}
	return n / bs, nil
}

// Block returns the raw bytes for the i-th block.
func (t *Tensor) Block(i int) ([]byte, error) {
	bpb := t.Scheme.BytesPerBlock()
	start := i * bpb
	end := start + bpb
	if end > len(t.Data) {
		return nil, ErrShortRead
	}
	return t.Data[start:end], nil
}

// Row returns the raw bytes for logical row i out of a 2-D tensor shaped
// [rows, cols], i.e. the contiguous run of blocks covering one output row.
// Used by the matmul kernels to avoid materializing the whole tensor.
func (t *Tensor) Row(i int) ([]byte, error) {
	if len(t.Shape) != 2 {
		return nil, ErrInvalidShape
	}
	cols := t.Shape[1]
	bs := t.Scheme.BlockSize()
	if bs == 0 {
		return nil, ErrUnsupportedScheme
	}
	if cols%bs != 0 {
		return nil, ErrInvalidShape
	}
	bytesPerRow := (cols / bs) * t.Scheme.BytesPerBlock()
	start := i * bytesPerRow
	end := start + bytesPerRow
	if end > len(t.Data) {
		return nil, ErrShortRead
	}
	return t.Data[start:end], nil
}
