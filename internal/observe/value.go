// Package observe provides a minimal current-value observable: a holder that
// keeps the latest published value and invokes subscribers synchronously on
// every publish. It is the server-side stand-in for UI state bindings.
package observe

import "sync"

// Value holds a current value of type T and a set of subscribers.
//
// Publish invokes every subscriber synchronously on the publishing goroutine,
// after the new value is visible via Get. Subscribers must not block.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[int]func(T)
	nextID  int
}

// NewValue creates a Value seeded with initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[int]func(T)),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Publish stores val and synchronously notifies all subscribers.
func (v *Value[T]) Publish(val T) {
	v.mu.Lock()
	v.current = val
	fns := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	// Invoke outside the lock so a subscriber may call Get or Subscribe.
	for _, fn := range fns {
		fn(val)
	}
}

// Update applies fn to the current value and publishes the result. The read,
// apply, and store happen under one lock acquisition, so concurrent Updates
// serialize instead of computing from the same base.
func (v *Value[T]) Update(fn func(T) T) {
	v.mu.Lock()
	val := fn(v.current)
	v.current = val
	fns := make([]func(T), 0, len(v.subs))
	for _, sub := range v.subs {
		fns = append(fns, sub)
	}
	v.mu.Unlock()

	for _, sub := range fns {
		sub(val)
	}
}

// Subscribe registers fn to be called on every publish and returns a cancel
// function. fn is not called with the current value at subscribe time.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}
