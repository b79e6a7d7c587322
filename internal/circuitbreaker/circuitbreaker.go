// Package circuitbreaker protects external service calls from hammering a
// peer that is already failing.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpenState is returned while the breaker rejects all requests
var ErrOpenState = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	// StateClosed allows all requests through
	StateClosed State = iota

	// StateOpen rejects all requests
	StateOpen

	// StateHalfOpen allows a single probe request to test recovery
	StateHalfOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker configuration
type Config struct {
	// MaxFailures is the number of consecutive failures before opening
	MaxFailures uint

	// Timeout is how long to stay open before allowing a probe
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxFailures: 5,
		Timeout:     60 * time.Second,
	}
}

// CircuitBreaker is a three-state breaker: closed until MaxFailures
// consecutive failures, open for Timeout, then half-open admitting one
// probe whose outcome closes or re-opens the circuit.
type CircuitBreaker struct {
	mu          sync.Mutex
	cfg         Config
	state       State
	failures    uint
	openedAt    time.Time
	probeActive bool
}

// New creates a circuit breaker in the closed state
func New(cfg Config) *CircuitBreaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = DefaultConfig().MaxFailures
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// Execute runs fn through the breaker
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := fn()
	cb.afterRequest(err)
	return err
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(cb.openedAt) <= cb.cfg.Timeout {
			return ErrOpenState
		}
		cb.state = StateHalfOpen
		cb.probeActive = true
		return nil

	default: // StateHalfOpen
		if cb.probeActive {
			return ErrOpenState
		}
		cb.probeActive = true
		return nil
	}
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.failures = 0
		cb.probeActive = false
		cb.state = StateClosed
		return
	}

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			cb.state = StateOpen
			cb.openedAt = time.Now()
		}

	case StateHalfOpen:
		cb.probeActive = false
		cb.state = StateOpen
		cb.openedAt = time.Now()
	}
}
