package bus

import (
	"sync"
	"sync/atomic"
)

// Retirable objects get a last callback when the retirer finally lets go of
// them.
type Retirable interface {
	Retire()
}

// Retirer defers releasing shared objects until no in-flight routing call
// can still reference them. Routing paths bracket themselves with
// Enter/Exit; writers hand replaced operations and removed records to
// ScheduleForDestruction instead of dropping the last reference themselves.
type Retirer struct {
	mu       sync.Mutex
	pending  []any
	inflight atomic.Int64
}

// NewRetirer builds an empty retirer.
func NewRetirer() *Retirer {
	return &Retirer{}
}

// Enter marks the start of a routing call.
func (r *Retirer) Enter() {
	r.inflight.Add(1)
}

// Exit marks the end of a routing call and opportunistically drains when the
// last in-flight call leaves.
func (r *Retirer) Exit() {
	if r.inflight.Add(-1) == 0 {
		r.Drain()
	}
}

// ScheduleForDestruction queues obj for release once routing quiesces. A
// call that started before the hand-off keeps using obj safely because the
// queue still holds a reference.
func (r *Retirer) ScheduleForDestruction(obj any) {
	if obj == nil {
		return
	}
	r.mu.Lock()
	r.pending = append(r.pending, obj)
	r.mu.Unlock()
}

// Drain releases every queued object if no routing call is in flight.
// Returns the number of objects released.
func (r *Retirer) Drain() int {
	if r.inflight.Load() > 0 {
		return 0
	}
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, obj := range pending {
		if rt, ok := obj.(Retirable); ok {
			rt.Retire()
		}
	}
	return len(pending)
}

// Pending reports how many objects are waiting to be released.
func (r *Retirer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
