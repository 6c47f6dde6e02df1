package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Kocoro-lab/travelian/internal/circuitbreaker"
)

type staticChecker struct {
	name     string
	status   CheckStatus
	critical bool
}

func (s staticChecker) Name() string           { return s.name }
func (s staticChecker) IsCritical() bool       { return s.critical }
func (s staticChecker) Timeout() time.Duration { return time.Second }
func (s staticChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: s.status}
}

type fakeGateway struct{ hasKey bool }

func (f fakeGateway) HasCredential() bool { return f.hasKey }
func (f fakeGateway) Model() string       { return "gemini-2.0-flash" }

func TestManagerOverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		checkers []Checker
		want     CheckStatus
		ready    bool
	}{
		{"no checks", nil, StatusHealthy, true},
		{"all healthy", []Checker{staticChecker{"a", StatusHealthy, true}}, StatusHealthy, true},
		{"degraded", []Checker{staticChecker{"a", StatusHealthy, true}, staticChecker{"b", StatusDegraded, false}}, StatusDegraded, true},
		{"non-critical failure", []Checker{staticChecker{"b", StatusUnhealthy, false}}, StatusDegraded, true},
		{"critical failure", []Checker{staticChecker{"a", StatusUnhealthy, true}, staticChecker{"b", StatusDegraded, false}}, StatusUnhealthy, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(zaptest.NewLogger(t))
			for _, c := range tt.checkers {
				require.NoError(t, m.RegisterChecker(c))
			}
			detailed := m.GetDetailedHealth(context.Background())
			assert.Equal(t, tt.want, detailed.Overall.Status)
			assert.Equal(t, tt.ready, detailed.Overall.Ready)
			assert.True(t, detailed.Overall.Live)
			assert.Equal(t, len(tt.checkers), detailed.Summary.Total)
			assert.Equal(t, tt.ready, m.IsReady(context.Background()))
		})
	}
}

func TestManagerRejectsDuplicates(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.RegisterChecker(staticChecker{name: "a"}))
	assert.Error(t, m.RegisterChecker(staticChecker{name: "a"}))
	assert.Error(t, m.RegisterChecker(staticChecker{name: ""}))
	assert.Equal(t, []string{"a"}, m.Names())
}

func TestModelCredentialChecker(t *testing.T) {
	res := NewModelCredentialChecker(fakeGateway{hasKey: false}).Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)

	res = NewModelCredentialChecker(fakeGateway{hasKey: true}).Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Equal(t, "gemini-2.0-flash", res.Details["model"])
}

func TestRedisHealthChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := NewRedisHealthChecker(client)
	assert.Equal(t, StatusHealthy, checker.Check(context.Background()).Status)

	mr.SetError("LOADING")
	res := checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.NotEmpty(t, res.Error)
}

func TestLedgerHealthChecker(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	checker := NewLedgerHealthChecker(db)
	assert.Equal(t, StatusHealthy, checker.Check(context.Background()).Status)
	res := checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Contains(t, res.Error, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCircuitBreakerChecker(t *testing.T) {
	collector := circuitbreaker.NewMetricsCollector()
	cb := circuitbreaker.New("health-test", circuitbreaker.Settings{FailureThreshold: 1, Timeout: time.Hour}, nil)
	collector.RegisterCircuitBreaker("gemini", cb)

	checker := NewCircuitBreakerChecker(collector)
	assert.Equal(t, StatusHealthy, checker.Check(context.Background()).Status)

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	res := checker.Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "open", res.Details["gemini:health-test"])
}

func TestHealthEndpoint(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.RegisterChecker(NewModelCredentialChecker(fakeGateway{})))

	started := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	h := NewHTTPHandler(m, ServiceInfo{
		Version:       "1.0.0",
		Environment:   "development",
		TravelModule:  true,
		ChatbotModule: true,
		StartedAt:     started,
	}, zaptest.NewLogger(t))
	h.now = func() time.Time { return started.Add(90 * time.Second) }

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "2026-01-02T03:05:30.000000", body["timestamp"])
	assert.Equal(t, true, body["travel_module"])
	assert.Equal(t, true, body["chatbot_module"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, 90.0, body["uptime"])
	assert.Equal(t, "development", body["environment"])
	assert.Contains(t, body["checks"], "model_credential")
}

func TestReadinessAndLiveness(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.RegisterChecker(staticChecker{"db", StatusUnhealthy, true}))
	h := NewHTTPHandler(m, ServiceInfo{}, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
