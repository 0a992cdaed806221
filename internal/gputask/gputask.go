// Package gputask adapts a GPU compute-shader dispatch to the node.Task
// contract. A ShaderTask holds a WGSL kernel and a Device it dispatches
// through; the device does the actual buffer upload, pipeline dispatch and
// readback (or, for tests and non-GPU builds, a pure-Go simulation of the
// same kernel).
package gputask

import (
	"fmt"

	"github.com/born-ml/born/internal/node"
	"github.com/born-ml/born/internal/tensor"
)

// Device executes one compute-shader dispatch: it uploads inputs, runs the
// named WGSL kernel over numElements work items, and returns the result
// bytes.
type Device interface {
	Dispatch(shaderName, shaderWGSL string, numElements int, inputs [][]byte) ([]byte, error)
}

// ShaderTask wraps a compiled WGSL kernel as a node.Task. The kernel is
// addressed by name for pipeline caching on the Device side; shaderWGSL is
// only consulted the first time a given name is dispatched.
type ShaderTask struct {
	device     Device
	shaderName string
	shaderWGSL string
}

// New returns a node.Task that dispatches shaderWGSL (registered under
// shaderName) on device, treating every input view's bytes as one storage
// buffer and writing the single returned buffer into outputs[0].
func New(device Device, shaderName, shaderWGSL string) node.Task {
	return &ShaderTask{device: device, shaderName: shaderName, shaderWGSL: shaderWGSL}
}

// Run implements node.Task.
func (s *ShaderTask) Run(inputs, outputs []tensor.View) error {
	if len(outputs) != 1 {
		return fmt.Errorf("gputask: %s: expected exactly one output, got %d", s.shaderName, len(outputs))
	}
	buffers := make([][]byte, len(inputs))
	for i, in := range inputs {
		buffers[i] = in.Data
	}

	result, err := s.device.Dispatch(s.shaderName, s.shaderWGSL, outputs[0].NumElements(), buffers)
	if err != nil {
		return fmt.Errorf("gputask: %s: %w", s.shaderName, err)
	}
	if len(result) != len(outputs[0].Data) {
		return fmt.Errorf("gputask: %s: dispatch returned %d bytes, want %d", s.shaderName, len(result), len(outputs[0].Data))
	}
	copy(outputs[0].Data, result)
	return nil
}
