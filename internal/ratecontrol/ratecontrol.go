package ratecontrol

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit is a provider quota in requests and tokens per minute. Zero disables a dimension.
type RateLimit struct {
	RPM int `mapstructure:"rpm"`
	TPM int `mapstructure:"tpm"`
}

// Enabled reports whether any dimension is limited.
func (l RateLimit) Enabled() bool {
	return l.RPM > 0 || l.TPM > 0
}

// builtInProviderLimits are free-tier quotas used when configuration leaves them unset.
var builtInProviderLimits = map[string]RateLimit{
	"gemini":  {RPM: 15, TPM: 1000000},
	"unknown": {RPM: 45, TPM: 90000},
}

// LimitForProvider returns the built-in quota for provider.
func LimitForProvider(provider string) RateLimit {
	if limit, ok := builtInProviderLimits[provider]; ok {
		return limit
	}
	return builtInProviderLimits["unknown"]
}

// CombineLimits keeps the stricter positive value of each dimension.
func CombineLimits(a, b RateLimit) RateLimit {
	limit := RateLimit{
		RPM: minPositive(a.RPM, b.RPM),
		TPM: minPositive(a.TPM, b.TPM),
	}
	return limit
}

// Pacer spaces outbound model calls to stay within a RateLimit.
// A nil *Pacer never waits.
type Pacer struct {
	limit    RateLimit
	requests *rate.Limiter
	tokens   *rate.Limiter
}

// NewPacer returns nil when limit is disabled.
func NewPacer(limit RateLimit) *Pacer {
	if !limit.Enabled() {
		return nil
	}
	p := &Pacer{limit: limit}
	if limit.RPM > 0 {
		p.requests = rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit.RPM)), 1)
	}
	if limit.TPM > 0 {
		p.tokens = rate.NewLimiter(rate.Limit(float64(limit.TPM)/60.0), limit.TPM)
	}
	return p
}

// Limit returns the configured quota.
func (p *Pacer) Limit() RateLimit {
	if p == nil {
		return RateLimit{}
	}
	return p.limit
}

// Wait blocks until a request estimated at estimatedTokens may be sent or ctx is done.
func (p *Pacer) Wait(ctx context.Context, estimatedTokens int) error {
	if p == nil {
		return nil
	}
	if p.requests != nil {
		if err := p.requests.Wait(ctx); err != nil {
			return err
		}
	}
	if p.tokens != nil && estimatedTokens > 0 {
		n := estimatedTokens
		if burst := p.tokens.Burst(); n > burst {
			n = burst
		}
		if err := p.tokens.WaitN(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// EstimateTokens approximates the token count of text at four characters per token.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(text)/4 + 1
}

func minPositive(a, b int) int {
	switch {
	case a <= 0 && b <= 0:
		return 0
	case a <= 0:
		return b
	case b <= 0:
		return a
	default:
		return min(a, b)
	}
}
