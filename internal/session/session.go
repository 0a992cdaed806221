// Package session implements the top-level façade binding topology,
// scheduler and node packages: the declaration API, lifecycle (Build,
// Start, Feed, GetResult, Stop), and ownership of all node and queue
// memory.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/born-ml/born/internal/ctxlog"
	"github.com/born-ml/born/internal/graph"
	"github.com/born-ml/born/internal/node"
	"github.com/born-ml/born/internal/scheduler"
	"github.com/born-ml/born/internal/tensor"
)

// Errors returned by API misuse. These are returned to the caller; the
// session remains usable afterward.
var (
	ErrAlreadyBuilt  = errors.New("session: already built")
	ErrNotBuilt      = errors.New("session: not built")
	ErrAlreadyExists = errors.New("session: node already exists")
	ErrNotStarted    = errors.New("session: not started")
	ErrUnknownNode   = errors.New("session: unknown node")
)

// Mode names an execution mode. It is stored in Config, but neither the
// session nor the scheduler reads it: every group runs on its own
// goroutine whatever the mode.
type Mode int

// Supported execution modes.
const (
	ModeSerial Mode = iota
	ModeParallel
)

// Config controls session-wide behavior.
type Config struct {
	Mode Mode
	// NumThread is an advisory upper bound on the number of groups; it is
	// not enforced, since the group assignment the caller provides via
	// Group or per-node CreateNode group ids is authoritative.
	NumThread int
	// QueueCapacity is the per-edge bound on in-flight tensors. Zero
	// selects the scheduler's default of 2.
	QueueCapacity int
	// Logger receives structural and error-level diagnostics. Nil selects
	// slog.Default().
	Logger *slog.Logger
}

// Edge is a directed connection from a producer node to a consumer node,
// identified by name.
type Edge = graph.Edge

// Session is the façade over topology, scheduler and node packages. Nodes
// are created by the Session and owned by it for its lifetime; queue pairs
// are allocated during Build, owned by the Scheduler, and torn down after
// all workers have joined.
type Session struct {
	name string
	cfg  Config
	log  *slog.Logger

	mu         sync.Mutex
	names      []string
	nodes      map[string]node.Node
	nodeGroups map[string]int

	explicitGroups [][]string

	built   bool
	started bool

	sched *scheduler.Scheduler
}

// New creates a Session with the given name and configuration.
func New(name string, cfg Config) *Session {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = scheduler.DefaultOptions().QueueCapacity
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		name:       name,
		cfg:        cfg,
		log:        logger,
		nodes:      map[string]node.Node{},
		nodeGroups: map[string]int{},
	}
}

// CreateNode registers a normal node wrapping task, with the given per-input
// and per-output shape contracts and a default group id. Must be called
// before Build.
func (s *Session) CreateNode(name string, task node.Task, inputShapes, outputShapes []tensor.Shape, groupID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.built {
		return ErrAlreadyBuilt
	}
	if _, exists := s.nodes[name]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, name)
	}

	s.nodes[name] = node.NewNormal(name, task, inputShapes, outputShapes)
	s.names = append(s.names, name)
	s.nodeGroups[name] = groupID
	return nil
}

// CreateComposite registers a composite node named name, wrapping the
// sub-graph described by edges. Every node referenced by edges must already
// have been registered via CreateNode (or a prior CreateComposite) and not
// yet be part of the top-level topology; those nodes are detached from the
// top level and become name's internal nodes.
func (s *Session) CreateComposite(name string, edges []Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.built {
		return ErrAlreadyBuilt
	}
	if _, exists := s.nodes[name]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, name)
	}

	innerNames := innerNodeNames(edges)
	innerNodes := make(map[string]node.Node, len(innerNames))
	for _, n := range innerNames {
		in, ok := s.nodes[n]
		if !ok {
			return fmt.Errorf("%w: %q referenced by composite %q", ErrUnknownNode, n, name)
		}
		innerNodes[n] = in
	}

	composite, err := buildComposite(name, innerNames, innerNodes, edges, s.cfg.QueueCapacity)
	if err != nil {
		return err
	}

	for _, n := range innerNames {
		delete(s.nodes, n)
		delete(s.nodeGroups, n)
		s.names = removeName(s.names, n)
	}

	s.nodes[name] = composite
	s.names = append(s.names, name)
	s.nodeGroups[name] = 0
	return nil
}

// BuildGraph builds the topology from edges, allocates queue pairs for
// every edge plus the two graph-boundary pairs, and applies whatever group
// assignment is pending (per-node CreateNode group ids, or a prior call to
// Group). Must be called exactly once, after all CreateNode/CreateComposite
// calls.
func (s *Session) BuildGraph(edges []Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.built {
		return ErrAlreadyBuilt
	}

	topo, err := graph.Build(s.names, edges)
	if err != nil {
		return err
	}
	for _, n := range s.names {
		s.nodes[n].SetInputNodes(topo.GetInputs(n))
		s.nodes[n].SetOutputNodes(topo.GetOutputs(n))
	}

	sched := scheduler.New(s.names, s.nodes, topo, scheduler.Options{QueueCapacity: s.cfg.QueueCapacity})
	if err := sched.BuildGroup(s.currentGroups()); err != nil {
		return err
	}
	if err := sched.AllocateQueues(); err != nil {
		return err
	}

	s.sched = sched
	s.built = true
	s.log.Debug("session: build complete", "session", s.name, "nodes", len(s.names), "edges", len(edges))
	return nil
}

// Group assigns group ids wholesale, overriding any per-node defaults set
// by CreateNode. May be called before or after BuildGraph, but before
// Start.
func (s *Session) Group(groups [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("session: cannot reassign groups after Start")
	}
	s.explicitGroups = groups
	if s.sched != nil {
		if err := s.sched.BuildGroup(s.currentGroups()); err != nil {
			return err
		}
	}
	return nil
}

// currentGroups derives the ordered group list scheduler.BuildGroup expects
// from either an explicit Group() call or the per-node defaults recorded by
// CreateNode, in node-creation order.
func (s *Session) currentGroups() [][]string {
	if s.explicitGroups != nil {
		return s.explicitGroups
	}
	maxID := 0
	for _, id := range s.nodeGroups {
		if id > maxID {
			maxID = id
		}
	}
	groups := make([][]string, maxID+1)
	for _, n := range s.names {
		id := s.nodeGroups[n]
		groups[id] = append(groups[id], n)
	}
	return groups
}

// Start spawns one worker goroutine per group. A second call after the
// first succeeds is a no-op, logged as a warning.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.built {
		return ErrNotBuilt
	}
	if s.started {
		s.log.Warn("session: Start called twice; ignoring", "session", s.name)
		return nil
	}
	ctx := ctxlog.WithLogger(context.Background(), s.log)
	s.sched.TasksSpawn(ctx)
	s.started = true
	return nil
}

// Stop raises the shared stop flag, unblocks any parked worker, and joins
// every worker goroutine. A second call after the first succeeds is a
// no-op, logged as a warning.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.built {
		return ErrNotBuilt
	}
	if !s.started {
		s.log.Warn("session: Stop called before Start or twice; ignoring", "session", s.name)
		return nil
	}
	s.sched.TasksStop()
	s.sched.TasksJoin()
	s.started = false
	return nil
}

// Feed blocks until the single graph-input edge has a free slot, then
// enqueues v. May be called concurrently with GetResult by a separate
// goroutine; Feed itself is single-producer.
func (s *Session) Feed(v tensor.View) error {
	sched, err := s.runningScheduler()
	if err != nil {
		return err
	}
	return sched.InputPair().Enqueue(v)
}

// GetResult blocks until a result is available on the single graph-output
// edge, copies it into v, and returns. If a task has failed, the
// terminating error is surfaced here instead.
func (s *Session) GetResult(v tensor.View) error {
	sched, err := s.runningScheduler()
	if err != nil {
		return err
	}
	derr := sched.OutputPair().Dequeue(v)
	if taskErr := sched.TaskError(); taskErr != nil {
		return taskErr
	}
	return derr
}

// runningScheduler returns the scheduler if the session is built and
// started, with minimal locking: the scheduler's own synchronization
// governs the hot Feed/GetResult path once node metadata is fixed at
// Build time.
func (s *Session) runningScheduler() (*scheduler.Scheduler, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.built {
		return nil, ErrNotBuilt
	}
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.sched, nil
}

// ShowInfo returns a diagnostic dump of nodes, edges and groups; queue
// pairs are not listed.
func (s *Session) ShowInfo() scheduler.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return scheduler.Info{}
	}
	return s.sched.ShowInfo()
}

func innerNodeNames(edges []Edge) []string {
	seen := map[string]bool{}
	var names []string
	for _, e := range edges {
		for _, n := range [2]string{e.Source, e.Target} {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}

func removeName(names []string, target string) []string {
	out := names[:0]
	for _, n := range names {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}
