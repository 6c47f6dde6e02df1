package circuitbreaker

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "travelian_circuit_breaker_state",
			Help: "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name", "service"},
	)

	circuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelian_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "service", "state", "result"},
	)

	circuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelian_circuit_breaker_state_changes_total",
			Help: "Total number of state changes in circuit breaker",
		},
		[]string{"name", "service", "from_state", "to_state"},
	)

	circuitBreakerOpenSince = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "travelian_circuit_breaker_open_since_seconds",
			Help: "Timestamp when the circuit breaker entered open state (0 if not open)",
		},
		[]string{"name", "service"},
	)
)

// MetricsCollector tracks registered breakers and exports their state.
type MetricsCollector struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{breakers: make(map[string]*CircuitBreaker)}
}

// RegisterCircuitBreaker hooks state changes of cb into the exported gauges.
func (mc *MetricsCollector) RegisterCircuitBreaker(service string, cb *CircuitBreaker) {
	mc.mu.Lock()
	mc.breakers[service+":"+cb.name] = cb
	mc.mu.Unlock()

	name := cb.name
	circuitBreakerState.WithLabelValues(name, service).Set(float64(StateClosed))

	cb.mu.Lock()
	prev := cb.onStateChange
	cb.onStateChange = func(cbName string, from, to State) {
		if prev != nil {
			prev(cbName, from, to)
		}
		circuitBreakerStateChanges.WithLabelValues(name, service, from.String(), to.String()).Inc()
		circuitBreakerState.WithLabelValues(name, service).Set(float64(to))
		if to == StateOpen {
			circuitBreakerOpenSince.WithLabelValues(name, service).SetToCurrentTime()
		} else if from == StateOpen {
			circuitBreakerOpenSince.WithLabelValues(name, service).Set(0)
		}
	}
	cb.mu.Unlock()
}

// States returns the current state of every registered breaker keyed by service:name.
func (mc *MetricsCollector) States() map[string]State {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	out := make(map[string]State, len(mc.breakers))
	for key, cb := range mc.breakers {
		out[key] = cb.State()
	}
	return out
}

// RecordRequest records a request attempt
func (mc *MetricsCollector) RecordRequest(name, service string, state State, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	circuitBreakerRequests.WithLabelValues(name, service, state.String(), result).Inc()
}

// GlobalMetricsCollector is the process-wide collector.
var GlobalMetricsCollector = NewMetricsCollector()

// Call runs fn through cb and records the attempt under service.
func Call(ctx context.Context, cb *CircuitBreaker, service string, fn func() error) error {
	err := cb.Execute(ctx, fn)
	GlobalMetricsCollector.RecordRequest(cb.name, service, cb.State(), err == nil)
	return err
}
