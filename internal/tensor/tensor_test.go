package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AllocatesZeroedBuffer(t *testing.T) {
	ts, err := New(Shape{2, 3}, Float32, Host)
	require.NoError(t, err)
	assert.Equal(t, 6, ts.NumElements())
	assert.Equal(t, 24, len(ts.View().Data))
	for _, b := range ts.View().Data {
		assert.Zero(t, b)
	}
}

func TestNew_RejectsInvalidShape(t *testing.T) {
	_, err := New(Shape{2, 0, 3}, Float32, Host)
	assert.Error(t, err)
}

func TestCopyFromTo_RoundTrip(t *testing.T) {
	src, err := New(Shape{4}, Float32, Host)
	require.NoError(t, err)
	copy(src.View().Data, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})

	dst, err := New(Shape{4}, Float32, Host)
	require.NoError(t, err)

	require.NoError(t, dst.CopyFrom(src.View()))
	assert.Equal(t, src.View().Data, dst.View().Data)

	out, err := New(Shape{4}, Float32, Host)
	require.NoError(t, err)
	require.NoError(t, src.CopyTo(out.View()))
	assert.Equal(t, src.View().Data, out.View().Data)
}

func TestCopyFrom_ShapeMismatch(t *testing.T) {
	a, err := New(Shape{4}, Float32, Host)
	require.NoError(t, err)
	b, err := New(Shape{2, 2}, Float32, Host)
	require.NoError(t, err)

	assert.ErrorIs(t, a.CopyFrom(b.View()), ErrShapeMismatch)
}

func TestCopyFrom_MemoryTypeMismatch(t *testing.T) {
	a, err := New(Shape{4}, Float32, Host)
	require.NoError(t, err)
	b, err := New(Shape{4}, Float32, Device)
	require.NoError(t, err)

	assert.ErrorIs(t, a.CopyFrom(b.View()), ErrMemoryTypeMismatch)
}

func TestShape_NumElementsAndEqual(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.True(t, s.Equal(Shape{2, 3, 4}))
	assert.False(t, s.Equal(Shape{2, 3}))
}

func TestDataType_Size(t *testing.T) {
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Float64.Size())
	assert.Equal(t, 1, Uint8.Size())
}
