// Package scheduler groups nodes into co-scheduled units, allocates queue
// pairs along the topology's edges, spawns and joins one worker goroutine
// per group, and implements the per-node run-loop discipline (await inputs,
// borrow outputs, execute, publish). Each group runs as a long-lived
// goroutine executing its nodes' run-loop until a shared atomic stop flag
// is observed, joined via sync.WaitGroup.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/born-ml/born/internal/ctxlog"
	"github.com/born-ml/born/internal/graph"
	"github.com/born-ml/born/internal/node"
	"github.com/born-ml/born/internal/queue"
	"github.com/born-ml/born/internal/tensor"
	"github.com/born-ml/born/internal/wiring"
)

// ErrAlreadyStarted and ErrNotStarted name Start/Stop misuse. No method of
// Scheduler returns them.
var (
	ErrAlreadyStarted = errors.New("scheduler: already started")
	ErrNotStarted      = errors.New("scheduler: not started")
)

// Options configures the scheduler. QueueCapacity is the per-edge bound on
// in-flight tensors.
type Options struct {
	QueueCapacity int
}

// DefaultOptions returns the default double-buffered configuration.
func DefaultOptions() Options {
	return Options{QueueCapacity: 2}
}

// Info is the diagnostic dump returned by ShowInfo: nodes, edges and
// groups. Queue pairs are not listed separately; each edge has one.
type Info struct {
	Nodes  []string
	Edges  []graph.Edge
	Groups map[int][]string
}

// Scheduler owns queue pairs and worker goroutines for one built graph.
type Scheduler struct {
	opts Options

	names   []string
	nodes   map[string]node.Node
	topo    *graph.Topology
	groups  map[int][]string // group id -> node names, in BuildGroup order
	groupOf map[string]int

	inputPair  *queue.Pair
	outputPair *queue.Pair

	stopped atomic.Bool
	wg      sync.WaitGroup

	taskErr atomic.Pointer[error]
}

// New creates a Scheduler for the given nodes and topology. Nodes must
// already have their input/output neighbor names set (Topology.GetInputs/
// GetOutputs) before calling New.
func New(names []string, nodes map[string]node.Node, topo *graph.Topology, opts Options) *Scheduler {
	return &Scheduler{
		opts:    opts,
		names:   names,
		nodes:   nodes,
		topo:    topo,
		groups:  map[int][]string{0: append([]string{}, names...)},
		groupOf: map[string]int{},
	}
}

// BuildGroup assigns nodes to worker-thread groups. Nodes named in no group
// default to group 0. The group list order is preserved as each group's
// service order.
func (s *Scheduler) BuildGroup(groups [][]string) error {
	assigned := map[string]bool{}
	newGroups := map[int][]string{}
	for id, names := range groups {
		for _, n := range names {
			if _, ok := s.nodes[n]; !ok {
				return fmt.Errorf("scheduler: unknown node %q in group %d", n, id)
			}
			s.nodes[n].MarkGroupID(id)
			assigned[n] = true
			s.groupOf[n] = id
		}
		newGroups[id] = append([]string{}, names...)
	}

	for _, n := range s.names {
		if !assigned[n] {
			s.nodes[n].MarkGroupID(0)
			s.groupOf[n] = 0
			newGroups[0] = append(newGroups[0], n)
		}
	}
	s.groups = newGroups
	return nil
}

// AllocateQueues builds the queue pairs for every edge plus the two
// boundary pairs, attaches them to nodes, and reorders each node's queue
// lists. Must be called once, after BuildGroup.
func (s *Scheduler) AllocateQueues() error {
	result, err := wiring.Wire(s.nodes, s.names, s.topo, s.opts.QueueCapacity, tensor.Host)
	if err != nil {
		return err
	}
	s.inputPair = result.InputPair
	s.outputPair = result.OutputPair
	return nil
}

// InputPair and OutputPair expose the graph's external feed/get boundary
// queues to the Session façade.
func (s *Scheduler) InputPair() *queue.Pair  { return s.inputPair }
func (s *Scheduler) OutputPair() *queue.Pair { return s.outputPair }

// TasksSpawn starts one worker goroutine per distinct group id. Each
// worker's loop services its group's nodes in BuildGroup order, running any
// node whose CheckIoIsReady is true, until the shared stop flag is set.
func (s *Scheduler) TasksSpawn(ctx context.Context) {
	s.stopped.Store(false)
	logger := ctxlog.FromContext(ctx)

	for id, names := range s.groups {
		groupNodes := make([]node.Node, len(names))
		for i, n := range names {
			groupNodes[i] = s.nodes[n]
		}

		s.wg.Add(1)
		go func(id int, groupNodes []node.Node) {
			defer s.wg.Done()
			logger.Debug("scheduler: worker started", "group", id)
			for !s.stopped.Load() {
				ranAny := false
				for _, n := range groupNodes {
					if s.stopped.Load() {
						break
					}
					if !n.CheckIoIsReady() {
						continue
					}
					if err := n.Run(); err != nil {
						logger.Error("scheduler: task failed", "group", id, "node", n.Name(), "error", err)
						s.taskErr.CompareAndSwap(nil, &err)
						s.TasksStop()
						break
					}
					ranAny = true
				}
				if !ranAny && !s.stopped.Load() {
					s.parkUntilReady(groupNodes)
				}
			}
			logger.Debug("scheduler: worker stopped", "group", id)
		}(id, groupNodes)
	}
}

// parkUntilReady avoids busy-spinning a worker whose group currently has no
// ready node. A group with a single node can block for real: peek the
// node's first input queue with a genuine blocking wait, then put the
// tensor back for the next readiness scan to claim. A group hosting
// multiple nodes cannot block on more than one queue at once without a
// select-like primitive BlockingQueuePair does not offer, so it falls back
// to a short poll instead.
func (s *Scheduler) parkUntilReady(groupNodes []node.Node) {
	if len(groupNodes) == 1 {
		qs := groupNodes[0].InputQueues()
		if len(qs) > 0 {
			if t := qs[0].BorrowFull(); t != nil {
				qs[0].ReturnFull(t)
			}
			return
		}
	}
	time.Sleep(time.Millisecond)
}

// TasksStop raises the shared stop flag and closes every node's input and
// output queue pairs, so any worker or external caller parked on a queue
// wakes up and the workers observe the flag. A failing task calls it too.
func (s *Scheduler) TasksStop() {
	if s.stopped.Swap(true) {
		return // idempotent: already stopped
	}
	for _, n := range s.names {
		for _, q := range s.nodes[n].InputQueues() {
			q.Close()
		}
		for _, q := range s.nodes[n].OutputQueues() {
			q.Close()
		}
	}
}

// TasksJoin waits for every worker goroutine to exit.
func (s *Scheduler) TasksJoin() {
	s.wg.Wait()
}

// TaskError returns the first error raised by a failing task, if any.
func (s *Scheduler) TaskError() error {
	if p := s.taskErr.Load(); p != nil {
		return *p
	}
	return nil
}

// ShowInfo returns a diagnostic dump of nodes, edges and groups; queue
// pairs are not listed.
func (s *Scheduler) ShowInfo() Info {
	return Info{
		Nodes:  append([]string{}, s.names...),
		Edges:  s.topo.Edges(),
		Groups: s.groups,
	}
}
