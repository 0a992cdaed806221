package tensor

// View is a stable, non-owning descriptor of a tensor: shape, raw bytes,
// and memory type. It is what crosses the queue boundary and what a Task
// receives — the producer/consumer never need to know about concrete
// buffer ownership.
type View struct {
	Shape  Shape
	Data   []byte
	Memory MemoryType
	DType  DataType
}

// NumElements returns the number of elements described by the view's shape.
func (v View) NumElements() int {
	return v.Shape.NumElements()
}
