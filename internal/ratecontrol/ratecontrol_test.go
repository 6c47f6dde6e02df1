package ratecontrol

import (
	"context"
	"testing"
	"time"
)

func TestCombineLimits(t *testing.T) {
	a := RateLimit{RPM: 30, TPM: 50000}
	b := RateLimit{RPM: 20, TPM: 100000}
	combined := CombineLimits(a, b)
	if combined.RPM != 20 {
		t.Fatalf("expected RPM 20, got %d", combined.RPM)
	}
	if combined.TPM != 50000 {
		t.Fatalf("expected TPM 50000, got %d", combined.TPM)
	}

	combined = CombineLimits(RateLimit{RPM: 0, TPM: 10}, RateLimit{RPM: 5})
	if combined.RPM != 5 || combined.TPM != 10 {
		t.Fatalf("expected zero dimensions to defer to the other side, got %+v", combined)
	}
}

func TestLimitForProvider(t *testing.T) {
	if got := LimitForProvider("gemini"); got.RPM != 15 {
		t.Fatalf("unexpected gemini limit %+v", got)
	}
	if got := LimitForProvider("nope"); got != LimitForProvider("unknown") {
		t.Fatalf("unknown providers should use the fallback limit, got %+v", got)
	}
}

func TestNilPacerNeverWaits(t *testing.T) {
	p := NewPacer(RateLimit{})
	if p != nil {
		t.Fatalf("expected nil pacer for disabled limit")
	}
	if err := p.Wait(context.Background(), 1000); err != nil {
		t.Fatalf("nil pacer returned %v", err)
	}
	if p.Limit().Enabled() {
		t.Fatalf("nil pacer should report no limit")
	}
}

func TestPacerSpacesRequests(t *testing.T) {
	p := NewPacer(RateLimit{RPM: 1})
	ctx := context.Background()
	if err := p.Wait(ctx, 0); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := p.Wait(ctx, 0); err == nil {
		t.Fatalf("second request within the minute should have to wait")
	}
}

func TestPacerClampsTokenBurst(t *testing.T) {
	p := NewPacer(RateLimit{TPM: 100})
	if err := p.Wait(context.Background(), 10_000); err != nil {
		t.Fatalf("oversized requests should be clamped to the burst, got %v", err)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Fatalf("empty text should be zero tokens")
	}
	if got := EstimateTokens("abcdefgh"); got != 3 {
		t.Fatalf("expected 3 tokens, got %d", got)
	}
}
