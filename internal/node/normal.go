package node

import (
	"fmt"

	"github.com/born-ml/born/internal/tensor"
)

// NormalNode wraps a user Task: a CPU closure or GPU compute-shader
// dispatch. Its Run() borrows one tensor from every input full queue and
// one tensor from every output free queue, invokes the task with their
// views, publishes the filled outputs, and returns the consumed inputs to
// their upstream free queues.
type NormalNode struct {
	base
	task Task
}

// NewNormal creates a NormalNode with the given name, task, and per-edge
// shape contracts.
func NewNormal(name string, task Task, inputShapes, outputShapes []tensor.Shape) *NormalNode {
	return &NormalNode{
		base: base{
			name:         name,
			inputShapes:  inputShapes,
			outputShapes: outputShapes,
		},
		task: task,
	}
}

// Run implements Node.
func (n *NormalNode) Run() error {
	inputTensors := make([]*tensor.Tensor, len(n.inputQueues))
	inputViews := make([]tensor.View, len(n.inputQueues))
	for i, q := range n.inputQueues {
		t := q.BorrowFull()
		if t == nil {
			return nil // queue closed during shutdown
		}
		inputTensors[i] = t
		inputViews[i] = t.View()
	}

	outputTensors := make([]*tensor.Tensor, len(n.outputQueues))
	outputViews := make([]tensor.View, len(n.outputQueues))
	for i, q := range n.outputQueues {
		t := q.BorrowFree()
		if t == nil {
			for j, it := range n.inputQueues {
				it.ReturnFull(inputTensors[j])
			}
			return nil
		}
		outputTensors[i] = t
		outputViews[i] = t.View()
	}

	if err := n.task.Run(inputViews, outputViews); err != nil {
		return fmt.Errorf("node %q: task failed: %w", n.name, err)
	}

	for i, q := range n.outputQueues {
		q.ReturnFull(outputTensors[i])
	}
	for i, q := range n.inputQueues {
		q.ReturnFree(inputTensors[i])
	}
	return nil
}
