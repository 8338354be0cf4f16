package llm

import (
	"fmt"
	"sync"
	"time"
)

// CircuitState is the breaker's current position.
type CircuitState int

const (
	// CircuitClosed: calls flow through normally.
	CircuitClosed CircuitState = iota
	// CircuitOpen: too many consecutive failures, calls are rejected.
	CircuitOpen
	// CircuitHalfOpen: one probe call is allowed to check for recovery.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes when the breaker trips and when it retests.
type CircuitBreakerConfig struct {
	// Threshold is how many consecutive failures trip the circuit.
	Threshold int
	// ResetAfter is how long the circuit stays open before a retest.
	ResetAfter time.Duration
}

// DefaultCircuitBreakerConfig returns the defaults for the breaker guarding
// interpretation calls. While the circuit is open the interpreter goes straight
// to its keyword fallback instead of waiting on a dead provider.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  5,
		ResetAfter: 30 * time.Second,
	}
}

// CircuitBreaker keeps a consecutive-failure count over model calls. It trips
// open at the threshold, rejects calls until ResetAfter has passed, then lets
// a single call through half-open to decide whether to close again.
type CircuitBreaker struct {
	mu               sync.Mutex
	consecutiveFails int
	threshold        int
	resetAfter       time.Duration
	lastFailure      time.Time
	state            CircuitState
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:  config.Threshold,
		resetAfter: config.ResetAfter,
		state:      CircuitClosed,
	}
}

// Allow reports whether a call may proceed. An open circuit whose reset
// window has elapsed moves to half-open and admits exactly one probe.
func (cb *CircuitBreaker) Allow() (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true, nil
	case CircuitOpen:
		if time.Since(cb.lastFailure) > cb.resetAfter {
			cb.state = CircuitHalfOpen
			return true, nil
		}
		return false, fmt.Errorf("circuit breaker open: %d consecutive model failures, last %v ago",
			cb.consecutiveFails, time.Since(cb.lastFailure).Round(time.Second))
	case CircuitHalfOpen:
		// The probe is already in flight.
		return false, fmt.Errorf("circuit breaker half-open: recovery probe in flight")
	default:
		return false, fmt.Errorf("circuit breaker in unknown state: %v", cb.state)
	}
}

// RecordSuccess closes the circuit and clears the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails = 0
	cb.state = CircuitClosed
}

// RecordFailure counts a failure. The circuit trips at the threshold, and a
// failed half-open probe reopens it immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails++
	cb.lastFailure = time.Now()

	if cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
		return
	}
	if cb.state == CircuitClosed && cb.consecutiveFails >= cb.threshold {
		cb.state = CircuitOpen
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
