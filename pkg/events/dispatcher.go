// Package events provides an ordered, re-entrant callback registry.
package events

import "sync"

// Dispatcher holds an ordered list of callbacks and broadcasts values to them.
//
// Broadcast iterates over a snapshot taken when it starts, so callbacks may
// register or unregister (themselves or others) while a broadcast is running.
// A registration added mid-broadcast is first called on the next broadcast; a
// registration removed mid-broadcast is still called by the running one if it
// had not been reached yet.
type Dispatcher[T any] struct {
	mu       sync.Mutex
	handlers []*handler[T]
	recover  func(any)
}

type handler[T any] struct {
	fn func(T)
}

// Option configures a Dispatcher.
type Option[T any] func(*Dispatcher[T])

// WithRecover installs a handler for panics raised by callbacks.
// Without it a panicking callback propagates to the broadcaster.
func WithRecover[T any](fn func(any)) Option[T] {
	return func(d *Dispatcher[T]) {
		d.recover = fn
	}
}

// New creates an empty Dispatcher.
func New[T any](opts ...Option[T]) *Dispatcher[T] {
	d := &Dispatcher[T]{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register appends fn and returns a function removing this registration.
// Registering the same function twice yields two independent registrations.
// The returned function is idempotent.
func (d *Dispatcher[T]) Register(fn func(T)) (unregister func()) {
	h := &handler[T]{fn: fn}

	d.mu.Lock()
	d.handlers = append(d.handlers, h)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, cur := range d.handlers {
			if cur == h {
				next := make([]*handler[T], 0, len(d.handlers)-1)
				next = append(next, d.handlers[:i]...)
				d.handlers = append(next, d.handlers[i+1:]...)
				return
			}
		}
	}
}

// Len returns the number of active registrations.
func (d *Dispatcher[T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers)
}

// Broadcast calls every registered callback in registration order with arg.
func (d *Dispatcher[T]) Broadcast(arg T) {
	d.mu.Lock()
	snapshot := d.handlers
	d.mu.Unlock()

	for _, h := range snapshot {
		d.call(h, arg)
	}
}

func (d *Dispatcher[T]) call(h *handler[T], arg T) {
	if h.fn == nil {
		return
	}
	if d.recover != nil {
		defer func() {
			if r := recover(); r != nil {
				d.recover(r)
			}
		}()
	}
	h.fn(arg)
}
