package node

import "github.com/born-ml/born/internal/tensor"

// Task is the payload a NormalNode wraps: a callable taking an ordered list
// of input tensor views and an ordered list of output tensor views. It must
// write to every output view exactly once and must not retain any view past
// return. A Task may be a CPU closure or a GPU compute-shader dispatch
// (internal/gputask); from the scheduler's perspective it is opaque.
type Task interface {
	Run(inputs []tensor.View, outputs []tensor.View) error
}

// TaskFunc adapts a plain function to the Task interface.
type TaskFunc func(inputs, outputs []tensor.View) error

// Run implements Task.
func (f TaskFunc) Run(inputs, outputs []tensor.View) error {
	return f(inputs, outputs)
}
