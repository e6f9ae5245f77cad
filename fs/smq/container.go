package smq

import "github.com/nullstep/smq/quant"

var magic = [4]byte{'S', 'M', 'Q', 0}

const currentVersion uint32 = 1

// TensorEntry is one row of the container's tensor table: a name, the
// on-disk scheme and shape, and the raw block payload (handed off directly
// to a quant.Tensor, no copy).
type TensorEntry struct {
	Name   string
	Scheme quant.Scheme
	Shape  []int
	Data   []byte
}

// Container is a fully decoded SMQ file: metadata plus the tensor table.
// Tensor payloads are not re-copied; Container.Tensor builds a *quant.Tensor
// view directly over the underlying byte slice read from disk.
type Container struct {
	Version  uint32
	Metadata Metadata
	Tensors  []TensorEntry
}

// Tensor returns the quant.Tensor view for tensor i.
func (c *Container) Tensor(i int) *quant.Tensor {
	e := c.Tensors[i]
	return &quant.Tensor{Name: e.Name, Scheme: e.Scheme, Shape: e.Shape, Data: e.Data}
}

// Find returns the tensor entry index matching name, or -1.
func (c *Container) Find(name string) int {
	for i, t := range c.Tensors {
		if t.Name == name {
			return i
		}
	}
	return -1
}
