package kvcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShape() Shape { return Shape{Layers: 2, KVHeads: 2, HeadDim: 4} }

func TestAppendAndGetRoundTrip(t *testing.T) {
	c := newCache(testShape(), 8)
	perToken := testShape().PerTokenFloats()

	k := make([]float32, perToken)
	v := make([]float32, perToken)
	for i := range k {
		k[i] = float32(i + 1)
		v[i] = float32(i + 100)
	}

	for layer := 0; layer < 2; layer++ {
		require.NoError(t, c.AppendKV(layer, k, v, 1))
	}
	require.NoError(t, c.Advance(1))
	assert.Equal(t, 1, c.CurrentTokens())

	gotK, err := c.GetKeys(0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, k, gotK)

	gotV, err := c.GetValues(1, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, v, gotV)
}

func TestAppendOverflow(t *testing.T) {
	c := newCache(testShape(), 2)
	perToken := testShape().PerTokenFloats()
	k := make([]float32, 3*perToken)
	v := make([]float32, 3*perToken)
	err := c.AppendKV(0, k, v, 3)
	assert.ErrorIs(t, err, ErrCacheOverflow)
}

func TestAdvanceOverflow(t *testing.T) {
	c := newCache(testShape(), 2)
	require.NoError(t, c.Advance(2))
	err := c.Advance(1)
	assert.ErrorIs(t, err, ErrCacheOverflow)
}

func TestSlideKeepsTail(t *testing.T) {
	c := newCache(testShape(), 4)
	perToken := testShape().PerTokenFloats()
	for tok := 0; tok < 4; tok++ {
		k := make([]float32, perToken)
		for i := range k {
			k[i] = float32(tok)
		}
		require.NoError(t, c.AppendKV(0, k, k, 1))
		require.NoError(t, c.AppendKV(1, k, k, 1))
		require.NoError(t, c.Advance(1))
	}

	require.NoError(t, c.Slide(2))
	assert.Equal(t, 2, c.CurrentTokens())

	got, err := c.GetKeys(0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(2), got[0]) // token 2 is now at position 0

	got, err = c.GetKeys(0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(3), got[0])
}

func TestResetClearsCurrentTokens(t *testing.T) {
	c := newCache(testShape(), 4)
	require.NoError(t, c.Advance(3))
	c.Reset()
	assert.Equal(t, 0, c.CurrentTokens())
}

func TestGetOutOfRange(t *testing.T) {
	c := newCache(testShape(), 4)
	require.NoError(t, c.Advance(1))
	_, err := c.GetKeys(0, 0, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestPeekKeysReadsUncommittedSuffix(t *testing.T) {
	c := newCache(testShape(), 4)
	perToken := testShape().PerTokenFloats()
	k := make([]float32, perToken)
	for i := range k {
		k[i] = 9
	}
	require.NoError(t, c.AppendKV(0, k, k, 1))
	assert.Equal(t, 0, c.CurrentTokens())

	got, err := c.PeekKeys(0, 1)
	require.NoError(t, err)
	assert.Equal(t, k, got)
}

func TestPoolRentReturnReusesBuffer(t *testing.T) {
	pool := NewPool(2)
	shape := testShape()

	c1 := pool.Rent(shape, 8)
	require.NoError(t, c1.Advance(3))
	pool.Return(c1)

	c2 := pool.Rent(shape, 8)
	assert.Same(t, c1, c2)
	assert.Equal(t, 0, c2.CurrentTokens())
}
