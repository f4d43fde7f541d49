package order

import (
	"sync"
	"time"
)

// Registry is the per-session authoritative store of orders, keyed by id.
// It owns every order it contains and the monotonic counter that assigns
// order numbers. A registry is created when a connection opens and dropped
// when it closes; nothing escapes it except value copies.
//
// The generator's producer goroutine inserts while the dispatcher may apply
// a transition concurrently, so access is guarded by mu.
type Registry struct {
	mu     sync.RWMutex
	orders map[string]*Order
	nextNo int64
}

// NewRegistry creates an empty registry with the order number counter at 1.
func NewRegistry() *Registry {
	return &Registry{
		orders: make(map[string]*Order),
		nextNo: 1,
	}
}

// Add assigns the next order number to o and stores it. The registry takes
// ownership of o; callers must not retain the pointer.
func (r *Registry) Add(o *Order) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o.Number = r.nextNo
	r.nextNo++
	r.orders[o.ID] = o
}

// Get returns a snapshot of the order with the given id.
func (r *Registry) Get(id string) (Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// Len returns the number of orders in the registry.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

// Process applies the Pending -> Processing transition to the order with the
// given id, stamping now as its processing time, and returns a snapshot of
// the result. On failure nothing is mutated.
func (r *Registry) Process(id string, now time.Time) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return Order{}, &NotFoundError{ID: id}
	}
	if err := o.Process(now); err != nil {
		return Order{}, err
	}
	return *o, nil
}

// Complete applies the Processing -> Done transition to the order with the
// given id and returns a snapshot of the result. On failure nothing is
// mutated.
func (r *Registry) Complete(id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return Order{}, &NotFoundError{ID: id}
	}
	if err := o.Complete(); err != nil {
		return Order{}, err
	}
	return *o, nil
}
