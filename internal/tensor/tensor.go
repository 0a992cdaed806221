package tensor

import "errors"

// ErrShapeMismatch is returned when a copy is attempted between tensors or
// views of different shapes.
var ErrShapeMismatch = errors.New("tensor: shape mismatch")

// ErrMemoryTypeMismatch is returned when a copy is attempted between tensors
// or views on different sides of the host/device boundary.
var ErrMemoryTypeMismatch = errors.New("tensor: memory type mismatch")

// Tensor owns a shape, an element count (the product of the shape), a
// memory-type tag, and an owning reference to a raw byte buffer sized to
// element_count * element_size. It is the data element carried on every
// edge of the graph.
type Tensor struct {
	shape  Shape
	dtype  DataType
	memory MemoryType
	buffer *Buffer
}

// New allocates a Tensor with the given shape, element type and memory type.
// The backing buffer is zeroed and sized to shape.NumElements() * dtype.Size().
func New(shape Shape, dtype DataType, memory MemoryType) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	size := shape.NumElements() * dtype.Size()
	return &Tensor{
		shape:  shape.Clone(),
		dtype:  dtype,
		memory: memory,
		buffer: NewBuffer(size),
	}, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape { return t.shape }

// DType returns the tensor's element type.
func (t *Tensor) DType() DataType { return t.dtype }

// Memory returns the tensor's memory type.
func (t *Tensor) Memory() MemoryType { return t.memory }

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int { return t.shape.NumElements() }

// View returns a stable, non-owning descriptor of the tensor's current
// contents. The returned View aliases the tensor's buffer; callers must not
// retain it past the tensor's next mutation.
func (t *Tensor) View() View {
	return View{
		Shape:  t.shape,
		Data:   t.buffer.Bytes(),
		Memory: t.memory,
		DType:  t.dtype,
	}
}

// CopyFrom copies the payload of v into t. Both must share shape and memory
// type; any mismatch is a fatal, non-recoverable build-time-checked
// condition surfaced as an error rather than a panic.
func (t *Tensor) CopyFrom(v View) error {
	if !t.shape.Equal(v.Shape) {
		return ErrShapeMismatch
	}
	if t.memory != v.Memory {
		return ErrMemoryTypeMismatch
	}
	copy(t.buffer.Bytes(), v.Data)
	return nil
}

// CopyTo copies t's payload into v's backing storage. Both must share shape
// and memory type.
func (t *Tensor) CopyTo(v View) error {
	if !t.shape.Equal(v.Shape) {
		return ErrShapeMismatch
	}
	if t.memory != v.Memory {
		return ErrMemoryTypeMismatch
	}
	copy(v.Data, t.buffer.Bytes())
	return nil
}
