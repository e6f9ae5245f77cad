package kvcache

// Shape is the model geometry a Cache is allocated against: L transformer
// layers, h_kv key/value heads, and d_h dimensions per head. Two caches are
// interchangeable (and therefore share a Pool bucket) only if both Shape
// and TMax match exactly.
type Shape struct {
	Layers     int
	KVHeads    int
	HeadDim    int
}

// PerTokenFloats is the number of float32 values stored per layer per
// token, for one of keys or values.
func (s Shape) PerTokenFloats() int {
	return s.KVHeads * s.HeadDim
}

// Key identifies a pool bucket: a model shape plus a fixed token capacity.
type Key struct {
	Shape Shape
	TMax  int
}
