// Package wiring allocates queue pairs along the edges of a topology and
// attaches them to nodes, shared by the Scheduler (for the outer graph) and
// by composite-node construction (for an inner sub-graph) so both wire
// queues identically. Every free queue starts stocked with freshly
// allocated tensors shaped to the producer's declared output shape.
package wiring

import (
	"errors"
	"fmt"

	"github.com/born-ml/born/internal/graph"
	"github.com/born-ml/born/internal/node"
	"github.com/born-ml/born/internal/queue"
	"github.com/born-ml/born/internal/tensor"
)

// ErrShapeMismatch is returned when an edge's producer output shape and
// consumer input shape disagree at their matching positional index.
var ErrShapeMismatch = errors.New("wiring: shape mismatch")

// Result holds the outcome of wiring a topology: the boundary queue pairs
// for the graph's single input and output nodes, used by the external
// feed/get surface (Session) or by a CompositeNode's embedded driver.
type Result struct {
	InputPair  *queue.Pair
	OutputPair *queue.Pair
}

// Wire allocates a queue.Pair of the given capacity for every edge in topo,
// pre-populates each pair's free queue with capacity freshly allocated
// tensors shaped to the producer's output shape, attaches the pairs to
// both endpoints' input/output queue lists, appends the graph-boundary
// pairs, and reorders every node's queue lists to match its neighbor
// lists.
func Wire(nodes map[string]node.Node, names []string, topo *graph.Topology, capacity int, memory tensor.MemoryType) (Result, error) {
	inQueues := make(map[string][]*queue.Pair, len(names))
	outQueues := make(map[string][]*queue.Pair, len(names))

	for _, uName := range names {
		u := nodes[uName]
		outs := topo.GetOutputs(uName)
		for i, vName := range outs {
			v := nodes[vName]
			ins := topo.GetInputs(vName)
			j := indexOf(ins, uName)
			if j < 0 {
				return Result{}, fmt.Errorf("wiring: edge %s -> %s not reflected in %s's inputs", uName, vName, vName)
			}

			uShape := u.OutputShapes()[i]
			vShape := v.InputShapes()[j]
			if !uShape.Equal(vShape) {
				return Result{}, fmt.Errorf("%w: %s.output[%d]=%v != %s.input[%d]=%v",
					ErrShapeMismatch, uName, i, uShape, vName, j, vShape)
			}

			pair, err := seededPair(uName, vName, capacity, uShape, memory)
			if err != nil {
				return Result{}, err
			}
			outQueues[uName] = append(outQueues[uName], pair)
			inQueues[vName] = append(inQueues[vName], pair)
		}
	}

	inputNode := nodes[topo.InputNode]
	if len(inputNode.InputShapes()) != 1 {
		return Result{}, fmt.Errorf("wiring: graph input node %q must declare exactly one input shape", topo.InputNode)
	}
	inputPair, err := seededPair("", topo.InputNode, capacity, inputNode.InputShapes()[0], memory)
	if err != nil {
		return Result{}, err
	}
	inQueues[topo.InputNode] = append(inQueues[topo.InputNode], inputPair)

	outputNode := nodes[topo.OutputNode]
	if len(outputNode.OutputShapes()) != 1 {
		return Result{}, fmt.Errorf("wiring: graph output node %q must declare exactly one output shape", topo.OutputNode)
	}
	outputPair, err := seededPair(topo.OutputNode, "", capacity, outputNode.OutputShapes()[0], memory)
	if err != nil {
		return Result{}, err
	}
	outQueues[topo.OutputNode] = append(outQueues[topo.OutputNode], outputPair)

	for _, name := range names {
		n := nodes[name]
		n.SetInputQueues(inQueues[name])
		n.SetOutputQueues(outQueues[name])
		if err := n.ReorderInputQueues(); err != nil {
			return Result{}, err
		}
		if err := n.ReorderOutputQueues(); err != nil {
			return Result{}, err
		}
	}

	return Result{InputPair: inputPair, OutputPair: outputPair}, nil
}

func seededPair(front, rear string, capacity int, shape tensor.Shape, memory tensor.MemoryType) (*queue.Pair, error) {
	pair := queue.New(front, rear, capacity)
	seed := make([]*tensor.Tensor, capacity)
	for i := range seed {
		t, err := tensor.New(shape, tensor.Float32, memory)
		if err != nil {
			return nil, fmt.Errorf("wiring: seed tensor for %s->%s: %w", front, rear, err)
		}
		seed[i] = t
	}
	pair.Seed(seed)
	return pair, nil
}

func indexOf(names []string, target string) int {
	for i, n := range names {
		if n == target {
			return i
		}
	}
	return -1
}
