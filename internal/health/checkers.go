package health

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kocoro-lab/travelian/internal/circuitbreaker"
)

const defaultCheckTimeout = 5 * time.Second

// CredentialReporter is satisfied by the model gateway.
type CredentialReporter interface {
	HasCredential() bool
	Model() string
}

// ModelCredentialChecker reports degraded when no default model credential is
// configured. Callers can still supply their own per request.
type ModelCredentialChecker struct {
	gateway CredentialReporter
}

// NewModelCredentialChecker creates a model credential checker
func NewModelCredentialChecker(gateway CredentialReporter) *ModelCredentialChecker {
	return &ModelCredentialChecker{gateway: gateway}
}

func (c *ModelCredentialChecker) Name() string           { return "model_credential" }
func (c *ModelCredentialChecker) IsCritical() bool       { return false }
func (c *ModelCredentialChecker) Timeout() time.Duration { return time.Second }

func (c *ModelCredentialChecker) Check(ctx context.Context) CheckResult {
	result := CheckResult{Details: map[string]any{"model": c.gateway.Model()}}
	if c.gateway.HasCredential() {
		result.Status = StatusHealthy
		result.Message = "Default model credential configured"
		return result
	}
	result.Status = StatusDegraded
	result.Message = "No default model credential; requests must supply one"
	return result
}

// RedisHealthChecker checks Redis connectivity
type RedisHealthChecker struct {
	client  redis.UniversalClient
	timeout time.Duration
}

// NewRedisHealthChecker creates a Redis health checker
func NewRedisHealthChecker(client redis.UniversalClient) *RedisHealthChecker {
	return &RedisHealthChecker{client: client, timeout: defaultCheckTimeout}
}

func (r *RedisHealthChecker) Name() string           { return "redis" }
func (r *RedisHealthChecker) IsCritical() bool       { return false }
func (r *RedisHealthChecker) Timeout() time.Duration { return r.timeout }

func (r *RedisHealthChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	err := r.client.Ping(ctx).Err()
	latency := time.Since(start)

	result := CheckResult{Details: map[string]any{"latency_ms": latency.Milliseconds()}}
	switch {
	case err != nil:
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = "Redis ping failed; rate limiting fails open"
	case latency > 100*time.Millisecond:
		result.Status = StatusDegraded
		result.Message = "Redis responding but with high latency"
	default:
		result.Status = StatusHealthy
		result.Message = "Redis healthy"
	}
	return result
}

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// LedgerHealthChecker checks the run ledger database
type LedgerHealthChecker struct {
	db      Pinger
	timeout time.Duration
}

// NewLedgerHealthChecker creates a ledger health checker
func NewLedgerHealthChecker(db Pinger) *LedgerHealthChecker {
	return &LedgerHealthChecker{db: db, timeout: defaultCheckTimeout}
}

func (d *LedgerHealthChecker) Name() string           { return "ledger" }
func (d *LedgerHealthChecker) IsCritical() bool       { return false }
func (d *LedgerHealthChecker) Timeout() time.Duration { return d.timeout }

func (d *LedgerHealthChecker) Check(ctx context.Context) CheckResult {
	if err := d.db.PingContext(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Error:   err.Error(),
			Message: "Ledger database unreachable; runs are not recorded",
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "Ledger database healthy"}
}

// CircuitBreakerChecker reports degraded while any registered breaker is open.
type CircuitBreakerChecker struct {
	collector *circuitbreaker.MetricsCollector
}

// NewCircuitBreakerChecker creates a breaker checker over collector
func NewCircuitBreakerChecker(collector *circuitbreaker.MetricsCollector) *CircuitBreakerChecker {
	return &CircuitBreakerChecker{collector: collector}
}

func (c *CircuitBreakerChecker) Name() string           { return "circuit_breakers" }
func (c *CircuitBreakerChecker) IsCritical() bool       { return false }
func (c *CircuitBreakerChecker) Timeout() time.Duration { return time.Second }

func (c *CircuitBreakerChecker) Check(ctx context.Context) CheckResult {
	states := c.collector.States()
	details := make(map[string]any, len(states))
	var open []string
	for key, state := range states {
		details[key] = state.String()
		if state == circuitbreaker.StateOpen {
			open = append(open, key)
		}
	}
	if len(open) > 0 {
		sort.Strings(open)
		return CheckResult{
			Status:  StatusDegraded,
			Message: "Circuit breakers open",
			Error:   "open: " + strings.Join(open, ", "),
			Details: details,
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "All circuit breakers closed", Details: details}
}
