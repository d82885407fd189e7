package resilience

import (
	"sync"
	"time"

	"github.com/everbloom/storefront/core"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// StateClosed allows all requests through
	StateClosed CircuitState = iota
	// StateOpen rejects all requests
	StateOpen
	// StateHalfOpen allows a limited number of probe requests
	StateHalfOpen
)

// String returns the string representation of the state
func (s CircuitState) String() string {
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

// CircuitBreakerConfig configures the breaker thresholds
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit
	FailureThreshold int

	// SleepWindow is how long to wait before entering half-open state
	SleepWindow time.Duration

	// HalfOpenSuccesses is the number of consecutive probe successes
	// required to close the circuit again
	HalfOpenSuccesses int
}

// DefaultCircuitBreakerConfig provides sensible defaults
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		FailureThreshold:  5,
		SleepWindow:       10 * time.Second,
		HalfOpenSuccesses: 2,
	}
}

// CircuitBreaker is an in-memory implementation of core.CircuitBreaker.
// The gateway wires it in front of the backend transport so a failing
// server produces fast local rejections instead of piling up timeouts.
type CircuitBreaker struct {
	mu     sync.Mutex
	config CircuitBreakerConfig
	logger core.Logger

	state     CircuitState
	failures  int
	successes int
	openedAt  time.Time
}

// NewCircuitBreaker creates a breaker in the closed state
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	return &CircuitBreaker{
		config: *config,
		logger: &core.NoOpLogger{},
		state:  StateClosed,
	}
}

// SetLogger configures the logger for state transition events
func (cb *CircuitBreaker) SetLogger(logger core.Logger) {
	if logger != nil {
		cb.mu.Lock()
		cb.logger = logger
		cb.mu.Unlock()
	}
}

// CanExecute returns true if the breaker would allow a request
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.config.SleepWindow {
			cb.transition(StateHalfOpen)
			return true
		}
		return false
	}
	return false
}

// RecordSuccess records a successful request
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.HalfOpenSuccesses {
			cb.transition(StateClosed)
		}
	}
}

// RecordFailure records a failed request
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		// A probe failure reopens immediately
		cb.transition(StateOpen)
	}
}

// GetState returns the current state as a string
func (cb *CircuitBreaker) GetState() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state.String()
}

// Reset manually returns the breaker to the closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
}

// transition moves to a new state. Caller holds the lock.
func (cb *CircuitBreaker) transition(to CircuitState) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	if to == StateOpen {
		cb.openedAt = time.Now()
	}

	cb.logger.Info("Circuit breaker state change", map[string]interface{}{
		"operation":  "circuit_state_change",
		"from_state": from.String(),
		"to_state":   to.String(),
	})
}
