// Package shutdown coordinates graceful teardown of the server, the sync
// engine, and the database connection.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler manages graceful shutdown of the application. Registered
// functions run in reverse order of registration (LIFO).
type Handler struct {
	mu       sync.Mutex
	funcs    []func(context.Context) error
	timeout  time.Duration
	signals  chan os.Signal
	done     chan struct{}
	shutDown bool
}

// New creates a shutdown handler with the given overall timeout
func New(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
}

// Register adds a function to run during shutdown
func (h *Handler) Register(fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.funcs = append(h.funcs, fn)
}

// Wait blocks until SIGINT or SIGTERM, then runs the shutdown
func (h *Handler) Wait() error {
	signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM)
	<-h.signals
	return h.Shutdown()
}

// Done is closed once shutdown has started
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// Shutdown runs all registered functions with the configured timeout.
// The first error is returned; later functions still run.
func (h *Handler) Shutdown() error {
	h.mu.Lock()
	if h.shutDown {
		h.mu.Unlock()
		return nil
	}
	h.shutDown = true
	funcs := make([]func(context.Context) error, len(h.funcs))
	copy(funcs, h.funcs)
	h.mu.Unlock()

	close(h.done)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var firstErr error
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
