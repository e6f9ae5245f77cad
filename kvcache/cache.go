package kvcache

// Cache holds, per layer, a contiguous [T_max * h_kv * d_h] float32 buffer
// for keys and one for values. current_tokens tracks how many leading
// positions are valid; append_kv only advances it once every layer in the
// current forward pass has written (Advance), matching
// spec.md §4.4's "advances current_tokens once all layers ... have
// written" rule.
type Cache struct {
	shape Shape
	tMax  int

	keys   [][]float32 // keys[layer] has len tMax*PerTokenFloats()
	values [][]float32

	currentTokens int
}

func newCache(shape Shape, tMax int) *Cache {
	c := &Cache{shape: shape, tMax: tMax}
	c.keys = make([][]float32, shape.Layers)
	c.values = make([][]float32, shape.Layers)
	perToken := shape.PerTokenFloats()
	for l := 0; l < shape.Layers; l++ {
		c.keys[l] = make([]float32, tMax*perToken)
		c.values[l] = make([]float32, tMax*perToken)
	}
	return c
}

// SizeBytes is the total memory footprint of this cache's buffers, used by
// the per-session budget enforcement in SessionStore.
func (c *Cache) SizeBytes() int64 {
	perToken := int64(c.shape.PerTokenFloats())
	return 2 * perToken * int64(c.tMax) * int64(c.shape.Layers) * 4
}

// CurrentTokens reports how many positions have been committed.
func (c *Cache) CurrentTokens() int { return c.currentTokens }

// AppendKV writes count tokens worth of keys/values for layer starting at
// the current tail position. It does not advance current_tokens itself —
// call Advance once every layer of the forward pass has called
// AppendKV for the same batch of positions.
func (c *Cache) AppendKV(layer int, keys, values []float32, count int) error {
	if layer < 0 || layer >= c.shape.Layers {
		return ErrShapeMismatch
	}
	perToken := c.shape.PerTokenFloats()
	if len(keys) != count*perToken || len(values) != count*perToken {
		return ErrShapeMismatch
	}
	if c.currentTokens+count > c.tMax {
		return ErrCacheOverflow
	}
	start := c.currentTokens * perToken
	copy(c.keys[layer][start:start+count*perToken], keys)
	copy(c.values[layer][start:start+count*perToken], values)
	return nil
}

// Advance commits count newly-appended tokens, to be called once per
// forward pass after every layer has written via AppendKV.
func (c *Cache) Advance(count int) error {
	if c.currentTokens+count > c.tMax {
		return ErrCacheOverflow
	}
	c.currentTokens += count
	return nil
}

// GetKeys returns a read-only view of [start, start+length) keys for layer.
func (c *Cache) GetKeys(layer, start, length int) ([]float32, error) {
	return c.getSlice(c.keys, layer, start, length)
}

// GetValues returns a read-only view of [start, start+length) values for layer.
func (c *Cache) GetValues(layer, start, length int) ([]float32, error) {
	return c.getSlice(c.values, layer, start, length)
}

func (c *Cache) getSlice(bufs [][]float32, layer, start, length int) ([]float32, error) {
	if layer < 0 || layer >= c.shape.Layers {
		return nil, ErrShapeMismatch
	}
	if start < 0 || length < 0 || start+length > c.currentTokens {
		return nil, ErrInvalidRange
	}
	perToken := c.shape.PerTokenFloats()
	from := start * perToken
	to := from + length*perToken
	return bufs[layer][from:to], nil
}

// Slide keeps only the last window tokens, block-copying each layer's
// buffers so position 0 becomes token (current_tokens - window).
func (c *Cache) Slide(window int) error {
	if window < 0 {
		return ErrShapeMismatch
	}
	if window >= c.currentTokens {
		return nil
	}
	perToken := c.shape.PerTokenFloats()
	dropped := c.currentTokens - window
	for l := 0; l < c.shape.Layers; l++ {
		copy(c.keys[l], c.keys[l][dropped*perToken:c.currentTokens*perToken])
		copy(c.values[l], c.values[l][dropped*perToken:c.currentTokens*perToken])
	}
	c.currentTokens = window
	return nil
}

// PeekKeys reads [0, length) keys for layer regardless of current_tokens,
// bounded only by tMax. Callers (the transformer forward pass) use this to
// read back a just-appended suffix before Advance has committed it to
// current_tokens, since attention for layer ℓ needs its own freshly written
// keys/values immediately, not after every layer in the pass has run.
func (c *Cache) PeekKeys(layer, length int) ([]float32, error) {
	return c.peekSlice(c.keys, layer, length)
}

// PeekValues is PeekKeys for the value buffers.
func (c *Cache) PeekValues(layer, length int) ([]float32, error) {
	return c.peekSlice(c.values, layer, length)
}

func (c *Cache) peekSlice(bufs [][]float32, layer, length int) ([]float32, error) {
	if layer < 0 || layer >= c.shape.Layers {
		return nil, ErrShapeMismatch
	}
	if length < 0 || length > c.tMax {
		return nil, ErrInvalidRange
	}
	perToken := c.shape.PerTokenFloats()
	return bufs[layer][:length*perToken], nil
}

// Reset clears current_tokens without zeroing the underlying buffers; the
// next AppendKV overwrites stale data.
func (c *Cache) Reset() {
	c.currentTokens = 0
}
