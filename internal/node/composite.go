package node

import (
	"fmt"

	"github.com/born-ml/born/internal/queue"
	"github.com/born-ml/born/internal/tensor"
)

// CompositeNode wraps an internal sub-graph: an ordered list of already
// wired inner nodes plus the two boundary queue pairs that feed the inner
// graph's single input node and drain its single output node.
//
// Internal edges are driven by an embedded sub-scheduler (this type's Run
// method) rather than folded into the outer scheduler's groups: from the
// outer scheduler's point of view a CompositeNode is indistinguishable from
// a NormalNode with an opaque task body. Composites may nest, since an
// inner node may itself be a CompositeNode.
type CompositeNode struct {
	base

	innerNodes  []Node
	innerInput  *queue.Pair // boundary pair feeding the inner input node; FrontName == ""
	innerOutput *queue.Pair // boundary pair draining the inner output node; RearName == ""
}

// NewComposite creates a CompositeNode. innerNodes must already be wired
// (queues attached, reordered) by the caller — see internal/wiring.Wire —
// over a sub-topology built from the edges supplied at creation time.
// inputShape/outputShape are the composite's external shape contract and
// must equal the inner graph's single input node's sole input shape and
// single output node's sole output shape, respectively.
func NewComposite(name string, innerNodes []Node, innerInput, innerOutput *queue.Pair, inputShape, outputShape tensor.Shape) *CompositeNode {
	return &CompositeNode{
		base: base{
			name:         name,
			inputShapes:  []tensor.Shape{inputShape},
			outputShapes: []tensor.Shape{outputShape},
		},
		innerNodes:  innerNodes,
		innerInput:  innerInput,
		innerOutput: innerOutput,
	}
}

// Run implements Node. It feeds the single external input view into the
// inner graph's input node, drives the inner nodes synchronously until the
// inner graph's output node has produced a result, and extracts that result
// into the single external output view.
func (c *CompositeNode) Run() error {
	if len(c.inputQueues) != 1 || len(c.outputQueues) != 1 {
		return fmt.Errorf("composite node %q: expected exactly one input and one output queue", c.name)
	}

	inTensor := c.inputQueues[0].BorrowFull()
	if inTensor == nil {
		return nil // closed during shutdown
	}
	outTensor := c.outputQueues[0].BorrowFree()
	if outTensor == nil {
		c.inputQueues[0].ReturnFull(inTensor)
		return nil
	}

	if err := c.innerInput.Enqueue(inTensor.View()); err != nil {
		return fmt.Errorf("composite node %q: feed inner input: %w", c.name, err)
	}

	for !c.innerOutput.TryFull() {
		progressed := false
		for _, n := range c.innerNodes {
			if n.CheckIoIsReady() {
				if err := n.Run(); err != nil {
					return fmt.Errorf("composite node %q: %w", c.name, err)
				}
				progressed = true
			}
		}
		if !progressed {
			return fmt.Errorf("composite node %q: inner graph stalled before producing a result", c.name)
		}
	}

	if err := c.innerOutput.Dequeue(outTensor.View()); err != nil {
		return fmt.Errorf("composite node %q: drain inner output: %w", c.name, err)
	}

	c.outputQueues[0].ReturnFull(outTensor)
	c.inputQueues[0].ReturnFree(inTensor)
	return nil
}
