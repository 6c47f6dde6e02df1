package models

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Classifier maps a raw provider failure to an ErrorKind.
type Classifier interface {
	Classify(err error) ErrorKind
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(err error) ErrorKind

// Classify implements Classifier.
func (f ClassifierFunc) Classify(err error) ErrorKind { return f(err) }

// SubstringClassifier matches known phrases in the failure text. The first
// matching rule wins:
//
//	timeout (any case) → Timeout
//	"429"              → RateLimited
//	"403", "401", "authentication" (any case) → AuthRejected
//	"quota" (any case) → QuotaExceeded
//
// Anything else is Unknown.
type SubstringClassifier struct{}

// Classify implements Classifier.
func (SubstringClassifier) Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, ErrNoCredential) {
		return KindNoCredential
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout"):
		return KindTimeout
	case strings.Contains(msg, "429"):
		return KindRateLimited
	case strings.Contains(msg, "403"), strings.Contains(msg, "401"), strings.Contains(lower, "authentication"):
		return KindAuthRejected
	case strings.Contains(lower, "quota"):
		return KindQuotaExceeded
	default:
		return KindUnknown
	}
}
