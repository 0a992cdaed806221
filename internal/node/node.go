// Package node implements the abstract compute-graph node: an input/output
// edge list, a name, shape contracts, and a Run hook, in two variants
// (NormalNode wrapping a user Task, CompositeNode wrapping a sub-graph).
// Node is a narrow interface implemented by both concrete types, sharing a
// common base struct for the neighbor-list/queue-list bookkeeping that is
// identical across variants.
package node

import (
	"fmt"

	"github.com/born-ml/born/internal/queue"
	"github.com/born-ml/born/internal/tensor"
)

// Node is the scheduler-facing contract every graph node satisfies.
type Node interface {
	// Name returns the node's unique name.
	Name() string

	// InputShapes and OutputShapes return the node's declared per-edge
	// shape contracts, in positional order.
	InputShapes() []tensor.Shape
	OutputShapes() []tensor.Shape

	// SetInputNodes / SetOutputNodes record the ordered neighbor names
	// resolved by the topology. Called once by Session during Build.
	SetInputNodes(names []string)
	SetOutputNodes(names []string)
	InputNodeNames() []string
	OutputNodeNames() []string

	// SetInputQueues / SetOutputQueues attach the queue pairs allocated by
	// the Scheduler. Called once per node with every pair attached to it,
	// in allocation order; ReorderInputQueues/ReorderOutputQueues then fix
	// the order.
	SetInputQueues(qs []*queue.Pair)
	SetOutputQueues(qs []*queue.Pair)
	InputQueues() []*queue.Pair
	OutputQueues() []*queue.Pair

	// MarkGroupID / GroupID record which worker thread co-schedules this
	// node.
	MarkGroupID(id int)
	GroupID() int

	// ReorderInputQueues / ReorderOutputQueues permute the queue lists so
	// their order matches InputNodeNames / OutputNodeNames, matching by
	// FrontName/RearName. Required because topology build order and
	// queue-allocation order are independent.
	ReorderInputQueues() error
	ReorderOutputQueues() error

	// CheckIoIsReady reports whether every input queue has a full tensor
	// and every output queue has a free tensor.
	CheckIoIsReady() bool

	// Run executes one iteration: borrow inputs, borrow outputs, execute,
	// publish outputs, recycle inputs.
	Run() error
}

// base holds the bookkeeping shared by NormalNode and CompositeNode.
type base struct {
	name         string
	inputShapes  []tensor.Shape
	outputShapes []tensor.Shape

	inputNodes  []string
	outputNodes []string

	inputQueues  []*queue.Pair
	outputQueues []*queue.Pair

	groupID int
}

func (b *base) Name() string                   { return b.name }
func (b *base) InputShapes() []tensor.Shape     { return b.inputShapes }
func (b *base) OutputShapes() []tensor.Shape    { return b.outputShapes }
func (b *base) SetInputNodes(names []string)    { b.inputNodes = names }
func (b *base) SetOutputNodes(names []string)   { b.outputNodes = names }
func (b *base) InputNodeNames() []string        { return b.inputNodes }
func (b *base) OutputNodeNames() []string       { return b.outputNodes }
func (b *base) SetInputQueues(qs []*queue.Pair) { b.inputQueues = qs }
func (b *base) SetOutputQueues(qs []*queue.Pair) { b.outputQueues = qs }
func (b *base) InputQueues() []*queue.Pair      { return b.inputQueues }
func (b *base) OutputQueues() []*queue.Pair     { return b.outputQueues }
func (b *base) MarkGroupID(id int)              { b.groupID = id }
func (b *base) GroupID() int                    { return b.groupID }

// CheckIoIsReady reports whether every input queue currently holds a full
// tensor and every output queue currently holds a free tensor, without
// blocking.
func (b *base) CheckIoIsReady() bool {
	for _, q := range b.inputQueues {
		if !q.TryFull() {
			return false
		}
	}
	for _, q := range b.outputQueues {
		if !q.TryFree() {
			return false
		}
	}
	return true
}

// ReorderInputQueues permutes inputQueues to match the order of inputNodes,
// matching each queue by its FrontName.
func (b *base) ReorderInputQueues() error {
	reordered, err := reorder(b.inputQueues, b.inputNodes, func(q *queue.Pair) string { return q.FrontName })
	if err != nil {
		return fmt.Errorf("node %q: reorder input queues: %w", b.name, err)
	}
	b.inputQueues = reordered
	return nil
}

// ReorderOutputQueues permutes outputQueues to match the order of
// outputNodes, matching each queue by its RearName.
func (b *base) ReorderOutputQueues() error {
	reordered, err := reorder(b.outputQueues, b.outputNodes, func(q *queue.Pair) string { return q.RearName })
	if err != nil {
		return fmt.Errorf("node %q: reorder output queues: %w", b.name, err)
	}
	b.outputQueues = reordered
	return nil
}

// reorder permutes queues so that key(queues[i]) == names[i] for all i.
// Boundary queues (FrontName/RearName == "") are left in their trailing
// position, since no entry in names can match them.
func reorder(queues []*queue.Pair, names []string, key func(*queue.Pair) string) ([]*queue.Pair, error) {
	byKey := make(map[string][]*queue.Pair, len(queues))
	var boundary []*queue.Pair
	for _, q := range queues {
		k := key(q)
		if k == "" {
			boundary = append(boundary, q)
			continue
		}
		byKey[k] = append(byKey[k], q)
	}

	out := make([]*queue.Pair, 0, len(queues))
	for _, n := range names {
		bucket := byKey[n]
		if len(bucket) == 0 {
			return nil, fmt.Errorf("no queue matching neighbor %q", n)
		}
		out = append(out, bucket[0])
		byKey[n] = bucket[1:]
	}
	out = append(out, boundary...)
	return out, nil
}
