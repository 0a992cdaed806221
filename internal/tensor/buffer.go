package tensor

// Buffer is the exclusive owner of one contiguous byte region. It is
// destroyed along with the Tensor that owns it; buffers are never shared
// between tensors.
type Buffer struct {
	data []byte
}

// NewBuffer allocates a zeroed buffer of the given byte size.
func NewBuffer(size int) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

// Bytes returns the buffer's underlying byte slice.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the buffer's size in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}
