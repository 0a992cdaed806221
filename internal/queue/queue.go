// Package queue implements the synchronization primitive of every graph
// edge: a pair of bounded blocking queues ("full", "free") forming a
// tensor-recycling ring between exactly one producer and one consumer.
package queue

import (
	"sync"

	"github.com/born-ml/born/internal/tensor"
)

// Pair represents one directed edge of the graph. For a pair with capacity
// k, |full| + |borrowed full| + |free| + |borrowed free| == k at all times.
type Pair struct {
	FrontName string // producer node name
	RearName  string // consumer node name

	mu       sync.Mutex
	fullCond sync.Cond
	freeCond sync.Cond
	full     []*tensor.Tensor
	free     []*tensor.Tensor
	capacity int
	closed   bool
}

// New creates a Pair of the given capacity with an empty full queue and an
// empty free queue. Callers populate the free queue with freshly allocated
// tensors via Seed before the graph starts (see wiring.Wire).
func New(front, rear string, capacity int) *Pair {
	p := &Pair{
		FrontName: front,
		RearName:  rear,
		capacity:  capacity,
		full:      make([]*tensor.Tensor, 0, capacity),
		free:      make([]*tensor.Tensor, 0, capacity),
	}
	p.fullCond.L = &p.mu
	p.freeCond.L = &p.mu
	return p
}

// Seed pre-populates the free queue with freshly allocated tensors. It must
// be called before the graph starts, once, with exactly `capacity` tensors.
func (p *Pair) Seed(tensors []*tensor.Tensor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, tensors...)
}

// Capacity returns the pair's configured capacity.
func (p *Pair) Capacity() int { return p.capacity }

// Enqueue blocks until a free slot is available, copies view's payload into
// a tensor borrowed from free, and pushes that tensor onto full. Used by the
// external feeder and by composite-node adapters.
func (p *Pair) Enqueue(v tensor.View) error {
	t := p.BorrowFree()
	if t == nil {
		return nil // closed while waiting
	}
	if err := t.CopyFrom(v); err != nil {
		p.ReturnFree(t)
		return err
	}
	p.ReturnFull(t)
	return nil
}

// Dequeue blocks until full is non-empty, pops a tensor, copies its payload
// into out, and returns the tensor to free. Used at the graph boundary.
func (p *Pair) Dequeue(out tensor.View) error {
	t := p.BorrowFull()
	if t == nil {
		return nil // closed while waiting
	}
	err := t.CopyTo(out)
	p.ReturnFree(t)
	return err
}

// BorrowFull blocks until full is non-empty or the pair is closed, then pops
// and returns one tensor without copying. Returns nil only if closed.
func (p *Pair) BorrowFull() *tensor.Tensor {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.full) == 0 && !p.closed {
		p.fullCond.Wait()
	}
	if len(p.full) == 0 {
		return nil
	}
	t := p.full[0]
	p.full = p.full[1:]
	return t
}

// ReturnFull pushes t onto full and wakes one waiter. Used by a node's
// Run() to publish a filled output tensor.
func (p *Pair) ReturnFull(t *tensor.Tensor) {
	p.mu.Lock()
	p.full = append(p.full, t)
	p.mu.Unlock()
	p.fullCond.Signal()
}

// BorrowFree blocks until free is non-empty or the pair is closed, then pops
// and returns one tensor without copying. Returns nil only if closed.
func (p *Pair) BorrowFree() *tensor.Tensor {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.free) == 0 && !p.closed {
		p.freeCond.Wait()
	}
	if len(p.free) == 0 {
		return nil
	}
	t := p.free[0]
	p.free = p.free[1:]
	return t
}

// ReturnFree pushes t onto free and wakes one waiter. Used by a node's
// Run() to recycle a consumed input tensor back to its upstream pair, and
// by Dequeue after the external consumer has copied the result out.
func (p *Pair) ReturnFree(t *tensor.Tensor) {
	p.mu.Lock()
	p.free = append(p.free, t)
	p.mu.Unlock()
	p.freeCond.Signal()
}

// TryFull reports whether full currently holds at least one tensor, without
// blocking. Used by the scheduler's readiness check.
func (p *Pair) TryFull() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.full) > 0
}

// TryFree reports whether free currently holds at least one tensor, without
// blocking. Used by the scheduler's readiness check.
func (p *Pair) TryFree() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free) > 0
}

// Close unblocks any goroutine parked in BorrowFull/BorrowFree by waking
// every waiter; each observes the closed flag and returns nil. Used only by
// the scheduler's shutdown path to wake workers parked on empty input
// queues.
func (p *Pair) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.fullCond.Broadcast()
	p.freeCond.Broadcast()
}

// Occupancy returns the current size of full and free, for tests asserting
// bounded-memory (P2) and backpressure (scenario 4) properties.
func (p *Pair) Occupancy() (full, free int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.full), len(p.free)
}
