package krill

import (
	"fmt"
	"sync"
)

// group is a named bag of ticked systems whose enabled flag flips
// collectively between frames.
type group struct {
	name    string
	enabled bool
	systems []*tickedSystem
}

func (g *group) apply(state bool) {
	g.enabled = state
	for _, t := range g.systems {
		t.enabled = state
	}
}

// toggleOp is one queued group state change.
type toggleOp struct {
	name   string
	flip   bool // toggle instead of set
	target bool
}

// toggleQueue collects group state changes during a frame. Producers are the
// worker threads running user systems; the single consumer is the dispatcher
// draining the queue before the next frame starts.
type toggleQueue struct {
	mu      sync.Mutex
	pending []toggleOp
}

func (q *toggleQueue) push(op toggleOp) {
	q.mu.Lock()
	q.pending = append(q.pending, op)
	q.mu.Unlock()
}

// drain hands the accumulated ops to fn in submission order and empties the
// queue.
func (q *toggleQueue) drain(fn func(toggleOp)) {
	q.mu.Lock()
	ops := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, op := range ops {
		fn(op)
	}
}

// EnableGroupNextFrame queues the group to be enabled before the next frame.
func (d *Dispatcher) EnableGroupNextFrame(name string) {
	d.toggles.push(toggleOp{name: name, target: true})
}

// DisableGroupNextFrame queues the group to be disabled before the next
// frame.
func (d *Dispatcher) DisableGroupNextFrame(name string) {
	d.toggles.push(toggleOp{name: name, target: false})
}

// SetGroupNextFrame queues an explicit group state for the next frame.
func (d *Dispatcher) SetGroupNextFrame(name string, enabled bool) {
	d.toggles.push(toggleOp{name: name, target: enabled})
}

// ToggleGroupNextFrame queues a state flip for the next frame. The flip is
// evaluated against the group state at drain time.
func (d *Dispatcher) ToggleGroupNextFrame(name string) {
	d.toggles.push(toggleOp{name: name, flip: true})
}

// GroupState returns the group's current enabled state.
func (d *Dispatcher) GroupState(name string) bool {
	g, ok := d.groups[name]
	if !ok {
		if debugChecks {
			panic(fmt.Errorf("%w: %q", ErrUnknownGroup, name))
		}
		return false
	}
	return g.enabled
}

// applyGroupToggles drains the queue at the start of a frame. Unknown groups
// are fatal in debug builds and ignored in release.
func (d *Dispatcher) applyGroupToggles() {
	d.toggles.drain(func(op toggleOp) {
		g, ok := d.groups[op.name]
		if !ok {
			if debugChecks {
				panic(fmt.Errorf("%w: %q", ErrUnknownGroup, op.name))
			}
			return
		}
		if op.flip {
			g.apply(!g.enabled)
			return
		}
		g.apply(op.target)
	})
}
