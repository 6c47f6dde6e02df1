package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures.
type ErrorKind string

const (
	KindNoCredential  ErrorKind = "no_credential"
	KindAuthRejected  ErrorKind = "auth_rejected"
	KindRateLimited   ErrorKind = "rate_limited"
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	KindTimeout       ErrorKind = "timeout"
	KindUnknown       ErrorKind = "unknown"
)

// FailureMarker prefixes every user-facing failure string.
const FailureMarker = "⚠️"

var userMessages = map[ErrorKind]string{
	KindNoCredential:  FailureMarker + " API Key Error: Please enter a valid Gemini API key in the settings to access AI features.",
	KindTimeout:       FailureMarker + " Request timed out. The service might be experiencing high traffic. Please try again later.",
	KindRateLimited:   FailureMarker + " Rate limit exceeded. Please try again in a few minutes.",
	KindAuthRejected:  FailureMarker + " API Key Error: Your API key appears to be invalid or has expired. Please update it in settings.",
	KindQuotaExceeded: FailureMarker + " API quota exceeded. Your Gemini API key has reached its usage limit.",
	KindUnknown:       FailureMarker + " Error processing your request. Please try again or check your API key settings.",
}

// UserMessage is the displayable text for the kind.
func (k ErrorKind) UserMessage() string {
	if msg, ok := userMessages[k]; ok {
		return msg
	}
	return userMessages[KindUnknown]
}

// ErrNoCredential is the cause of a KindNoCredential failure.
var ErrNoCredential = errors.New("no model credential supplied and no default configured")

// GatewayError is the only error type returned by Gateway.Invoke.
type GatewayError struct {
	Kind  ErrorKind
	Cause error
}

func (e *GatewayError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("model gateway: %s", e.Kind)
	}
	return fmt.Sprintf("model gateway: %s: %v", e.Kind, e.Cause)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// UserMessage is the displayable failure text for this error.
func (e *GatewayError) UserMessage() string {
	return e.Kind.UserMessage()
}

// AsGatewayError extracts a *GatewayError from err, if any.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini: HTTP %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini: HTTP %d: %s", e.StatusCode, e.Message)
}
