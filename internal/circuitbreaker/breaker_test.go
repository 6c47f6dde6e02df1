package circuitbreaker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(t *testing.T, s Settings) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := New("test", s, zaptest.NewLogger(t))
	cb.now = clock.Now
	cb.expiry = clock.Now().Add(cb.settings.Interval)
	return cb, clock
}

func TestCircuitBreakerStates(t *testing.T) {
	cb, clock := newTestBreaker(t, Settings{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		MaxRequests:      5,
		Timeout:          100 * time.Millisecond,
		Interval:         time.Minute,
	})
	ctx := context.Background()

	if cb.State() != StateClosed {
		t.Errorf("Expected initial state to be closed, got %s", cb.State())
	}

	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, func() error { return nil }); err != nil {
			t.Errorf("Expected success, got error: %v", err)
		}
	}

	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, func() error { return errors.New("boom") }); err == nil {
			t.Error("Expected error, got nil")
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("Expected state to be open, got %s", cb.State())
	}

	if err := cb.Execute(ctx, func() error { return nil }); !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Errorf("Expected circuit breaker open error, got %v", err)
	}

	clock.Advance(150 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("Expected state to be half-open, got %s", cb.State())
	}

	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, func() error { return nil }); err != nil {
			t.Errorf("Expected success, got error: %v", err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected state to be closed, got %s", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(t, Settings{FailureThreshold: 1, Timeout: time.Second})
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errors.New("boom") })
	clock.Advance(2 * time.Second)
	_ = cb.Execute(ctx, func() error { return errors.New("still down") })

	if cb.State() != StateOpen {
		t.Errorf("Expected half-open failure to reopen, got %s", cb.State())
	}
}

func TestCircuitBreakerMaxRequests(t *testing.T) {
	cb, clock := newTestBreaker(t, Settings{
		FailureThreshold: 1,
		MaxRequests:      2,
		SuccessThreshold: 5,
		Timeout:          time.Second,
	})
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errors.New("boom") })
	clock.Advance(2 * time.Second)

	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, func() error { return nil }); err != nil {
			t.Errorf("Expected success, got error: %v", err)
		}
	}
	if err := cb.Execute(ctx, func() error { return nil }); !errors.Is(err, ErrTooManyRequests) {
		t.Errorf("Expected too many requests error, got %v", err)
	}
}

func TestCircuitBreakerCounts(t *testing.T) {
	cb, _ := newTestBreaker(t, DefaultSettings())
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return nil })
	_ = cb.Execute(ctx, func() error { return errors.New("error") })
	_ = cb.Execute(ctx, func() error { return nil })

	counts := cb.Counts()
	if counts.Requests != 3 {
		t.Errorf("Expected 3 requests, got %d", counts.Requests)
	}
	if counts.TotalSuccesses != 2 {
		t.Errorf("Expected 2 successes, got %d", counts.TotalSuccesses)
	}
	if counts.TotalFailures != 1 {
		t.Errorf("Expected 1 failure, got %d", counts.TotalFailures)
	}
}

func TestCircuitBreakerCancelledContext(t *testing.T) {
	cb, _ := newTestBreaker(t, DefaultSettings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := cb.Execute(ctx, func() error { called = true; return nil })
	if !errors.Is(err, context.Canceled) || called {
		t.Errorf("Expected cancelled context to skip fn, got err=%v called=%v", err, called)
	}
}

func TestRegisterTracksStateChanges(t *testing.T) {
	cb, _ := newTestBreaker(t, Settings{FailureThreshold: 1})
	collector := NewMetricsCollector()
	collector.RegisterCircuitBreaker("unit", cb)

	_ = Call(context.Background(), cb, "unit", func() error { return errors.New("boom") })

	if got := collector.States()["unit:test"]; got != StateOpen {
		t.Errorf("Expected collector to report open, got %s", got)
	}
}

func TestHTTPWrapperStatusHandling(t *testing.T) {
	status := http.StatusInternalServerError
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	hw := NewHTTPWrapper(srv.Client(), "http-test", "unit", Settings{FailureThreshold: 2, Timeout: time.Minute}, zaptest.NewLogger(t))

	do := func() (*http.Response, error) {
		req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
		resp, err := hw.Do(req)
		if resp != nil {
			resp.Body.Close()
		}
		return resp, err
	}

	status = http.StatusBadRequest
	for i := 0; i < 3; i++ {
		resp, err := do()
		if err != nil || resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400 passthrough, got resp=%v err=%v", resp, err)
		}
	}
	if hw.Breaker().State() != StateClosed {
		t.Fatalf("4xx responses must not trip the breaker")
	}

	status = http.StatusServiceUnavailable
	for i := 0; i < 2; i++ {
		resp, err := do()
		if err != nil || resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("Expected 503 passthrough, got resp=%v err=%v", resp, err)
		}
	}
	if hw.Breaker().State() != StateOpen {
		t.Fatalf("Expected 5xx responses to open the breaker")
	}
	if _, err := do(); !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Fatalf("Expected open breaker error, got %v", err)
	}
}
