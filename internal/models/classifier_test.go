package models

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o stalled" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestSubstringClassifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"rate limited", errors.New("gemini: HTTP 429 RESOURCE_EXHAUSTED: slow down"), KindRateLimited},
		{"forbidden", errors.New("HTTP 403 PERMISSION_DENIED"), KindAuthRejected},
		{"unauthorized", errors.New("status 401"), KindAuthRejected},
		{"authentication text", errors.New("Authentication failed for key"), KindAuthRejected},
		{"timeout lower", errors.New("request timeout"), KindTimeout},
		{"timeout mixed case", errors.New("Client.Timeout exceeded while awaiting headers"), KindTimeout},
		{"quota", errors.New("Quota exhausted for project"), KindQuotaExceeded},
		{"unknown", errors.New("connection reset by peer"), KindUnknown},
		{"breaker open", errors.New("circuit breaker is open"), KindUnknown},
		{"deadline", fmt.Errorf("gemini request: %w", context.DeadlineExceeded), KindTimeout},
		{"net timeout", fmt.Errorf("wrapped: %w", timeoutErr{}), KindTimeout},
		{"no credential", ErrNoCredential, KindNoCredential},
		{"nil", nil, KindUnknown},
		{"timeout wins over 429", errors.New("429 after timeout"), KindTimeout},
		{"429 wins over quota", errors.New("HTTP 429: quota exceeded"), KindRateLimited},
	}
	c := SubstringClassifier{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.err))
		})
	}
}

func TestUserMessages(t *testing.T) {
	kinds := []ErrorKind{KindNoCredential, KindAuthRejected, KindRateLimited, KindQuotaExceeded, KindTimeout, KindUnknown}
	seen := map[string]bool{}
	for _, k := range kinds {
		msg := k.UserMessage()
		assert.Contains(t, msg, FailureMarker, "kind %s", k)
		assert.False(t, seen[msg], "kind %s shares a message", k)
		seen[msg] = true
	}
	assert.Equal(t, KindUnknown.UserMessage(), ErrorKind("other").UserMessage())
	assert.Equal(t,
		"⚠️ API Key Error: Please enter a valid Gemini API key in the settings to access AI features.",
		(&GatewayError{Kind: KindNoCredential}).UserMessage())
}

func TestGatewayErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("section: %w", &GatewayError{Kind: KindUnknown, Cause: cause})
	gerr, ok := AsGatewayError(err)
	assert.True(t, ok)
	assert.Equal(t, KindUnknown, gerr.Kind)
	assert.ErrorIs(t, err, cause)

	_, ok = AsGatewayError(errors.New("plain"))
	assert.False(t, ok)
}
