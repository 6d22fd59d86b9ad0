// Package guard intercepts process termination while a history has blockers,
// the terminal counterpart of a browser's "leave this page?" prompt.
package guard

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalGuard implements ports.UnloadGuard over SIGINT and SIGTERM.
//
// While disarmed, a signal cancels Context. While armed, the signal is offered
// to the confirm function instead; the context is only cancelled if it agrees.
type SignalGuard struct {
	mu      sync.Mutex
	armed   bool
	confirm func(os.Signal) bool

	ctx    context.Context
	cancel context.CancelFunc

	signals chan os.Signal
	stop    chan struct{}
	once    sync.Once
}

// Option configures a SignalGuard.
type Option func(*SignalGuard)

// WithConfirm sets the function consulted when a signal arrives while armed.
// Returning true lets the process shut down anyway. The default always refuses.
func WithConfirm(fn func(os.Signal) bool) Option {
	return func(g *SignalGuard) {
		g.confirm = fn
	}
}

// New creates a guard. Signals are not captured until Start.
func New(parent context.Context, opts ...Option) *SignalGuard {
	g := &SignalGuard{
		confirm: func(os.Signal) bool { return false },
		signals: make(chan os.Signal, 1),
		stop:    make(chan struct{}),
	}
	g.ctx, g.cancel = context.WithCancel(parent)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Context is cancelled once a signal is accepted.
func (g *SignalGuard) Context() context.Context {
	return g.ctx
}

// Start begins capturing SIGINT (Ctrl+C) and SIGTERM.
func (g *SignalGuard) Start() {
	signal.Notify(g.signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		for {
			select {
			case sig := <-g.signals:
				g.Deliver(sig)
			case <-g.stop:
				return
			}
		}
	}()
}

// Stop releases the signals. It is safe to call more than once.
func (g *SignalGuard) Stop() {
	g.once.Do(func() {
		signal.Stop(g.signals)
		close(g.stop)
		g.cancel()
	})
}

// Arm implements ports.UnloadGuard.
func (g *SignalGuard) Arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = true
}

// Disarm implements ports.UnloadGuard.
func (g *SignalGuard) Disarm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = false
}

// Armed reports whether signals are currently intercepted.
func (g *SignalGuard) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.armed
}

// Deliver handles sig as if it had been received. It reports whether the
// guard let the process shut down.
func (g *SignalGuard) Deliver(sig os.Signal) bool {
	g.mu.Lock()
	armed, confirm := g.armed, g.confirm
	g.mu.Unlock()

	if armed && !confirm(sig) {
		return false
	}
	g.cancel()
	return true
}
