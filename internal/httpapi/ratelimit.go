package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/travelian/internal/circuitbreaker"
	ometrics "github.com/Kocoro-lab/travelian/internal/metrics"
)

const rateLimitService = "redis"

// RateLimiter limits requests per client address in fixed one-minute windows
// stored in Redis. Redis failures and an open breaker let requests through.
type RateLimiter struct {
	redis             redis.UniversalClient
	cb                *circuitbreaker.CircuitBreaker
	logger            *zap.Logger
	requestsPerMinute int
	keyPrefix         string
	now               func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client redis.UniversalClient, requestsPerMinute int, keyPrefix string, settings circuitbreaker.Settings, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keyPrefix == "" {
		keyPrefix = "travelian:ratelimit"
	}
	cb := circuitbreaker.New("redis-ratelimit", settings, logger)
	circuitbreaker.GlobalMetricsCollector.RegisterCircuitBreaker(rateLimitService, cb)
	return &RateLimiter{
		redis:             client,
		cb:                cb,
		logger:            logger,
		requestsPerMinute: requestsPerMinute,
		keyPrefix:         keyPrefix,
		now:               time.Now,
	}
}

// Middleware returns the HTTP middleware function
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientAddress(r)
		key := fmt.Sprintf("%s:%s", rl.keyPrefix, client)

		allowed, remaining, resetAt := rl.checkRateLimit(r.Context(), key)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMinute))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			ometrics.RateLimitRejections.WithLabelValues(route).Inc()
			rl.logger.Warn("Rate limit exceeded",
				zap.String("client", client),
				zap.String("path", r.URL.Path),
			)

			retryAfter := int(resetAt.Sub(rl.now()).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			rl.sendRateLimitError(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkRateLimit counts the request in the current window.
func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string) (allowed bool, remaining int, resetAt time.Time) {
	window := rl.now().Truncate(time.Minute)
	resetAt = window.Add(time.Minute)
	windowKey := fmt.Sprintf("%s:%d", key, window.Unix())

	var count int64
	err := circuitbreaker.Call(ctx, rl.cb, rateLimitService, func() error {
		pipe := rl.redis.Pipeline()
		incr := pipe.Incr(ctx, windowKey)
		pipe.Expire(ctx, windowKey, time.Minute+time.Second)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		count = incr.Val()
		return nil
	})
	if err != nil {
		rl.logger.Warn("Rate limit check failed; allowing request", zap.Error(err))
		return true, rl.requestsPerMinute, resetAt
	}

	remaining = rl.requestsPerMinute - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(rl.requestsPerMinute), remaining, resetAt
}

func (rl *RateLimiter) sendRateLimitError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Detail: "Too many requests. Please retry after the rate limit window resets.",
	})
}

// clientAddress strips the port from RemoteAddr. RealIP middleware runs first.
func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
