// Package asyncreq coalesces rapid inputs into debounced requests and
// discards responses that a newer request has superseded. It backs both
// search-as-you-type and sort-preference persistence.
package asyncreq

import (
	"context"
	"sync"
	"time"
)

// Fetch performs the network call for an input
type Fetch[I, R any] func(ctx context.Context, input I) (R, error)

// Coordinator debounces Submit calls and dispatches at most one request per
// debounce window. Every dispatch is tagged with a strictly increasing
// sequence number; a completed request's result is delivered only while its
// sequence number is still the latest dispatched. Stale results are dropped
// silently, as are stale errors.
type Coordinator[I, R any] struct {
	window  time.Duration
	fetch   Fetch[I, R]
	apply   func(input I, result R)
	onError func(input I, err error)

	mu      sync.Mutex
	timer   *time.Timer
	pending *I
	seq     uint64
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config holds coordinator configuration
type Config[I, R any] struct {
	// Window is the debounce window. Zero dispatches on the next timer fire
	// with no coalescing delay.
	Window time.Duration

	// Fetch performs the request. It observes cancellation through ctx.
	Fetch Fetch[I, R]

	// Apply receives results that are still current at completion time.
	Apply func(input I, result R)

	// OnError receives failures that are still current at completion time.
	// Optional.
	OnError func(input I, err error)
}

// New creates a coordinator
func New[I, R any](cfg Config[I, R]) *Coordinator[I, R] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator[I, R]{
		window:  cfg.Window,
		fetch:   cfg.Fetch,
		apply:   cfg.Apply,
		onError: cfg.OnError,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit coalesces input into the current debounce window. Only the last
// input submitted within the window is dispatched.
func (c *Coordinator[I, R]) Submit(input I) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.pending = &input
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window, c.dispatch)
}

// Cancel drops any pending debounced input and marks every in-flight
// request stale, so its eventual result is discarded.
func (c *Coordinator[I, R]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// Close cancels all work and waits for in-flight requests to finish
func (c *Coordinator[I, R]) Close() {
	c.mu.Lock()
	c.cancelLocked()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Coordinator[I, R]) cancelLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = nil
	c.seq++
}

func (c *Coordinator[I, R]) dispatch() {
	c.mu.Lock()
	if c.closed || c.pending == nil {
		c.mu.Unlock()
		return
	}
	input := *c.pending
	c.pending = nil
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		result, err := c.fetch(c.ctx, input)

		c.mu.Lock()
		stale := c.closed || seq != c.seq
		c.mu.Unlock()
		if stale {
			return
		}

		if err != nil {
			if c.onError != nil {
				c.onError(input, err)
			}
			return
		}
		c.apply(input, result)
	}()
}
