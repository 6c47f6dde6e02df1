package models

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Kocoro-lab/travelian/internal/metrics"
	"github.com/Kocoro-lab/travelian/internal/ratecontrol"
)

// DefaultCredentialPrefix is the lexical prefix expected of Gemini API keys.
const DefaultCredentialPrefix = "AI"

// GatewayConfig configures the model gateway.
type GatewayConfig struct {
	BaseURL           string
	Model             string
	DefaultCredential string
	CredentialPrefix  string
	Generation        GenerationConfig
	RateLimit         ratecontrol.RateLimit
}

// InvokeRequest is one prompt to send. Credential is optional.
type InvokeRequest struct {
	Prompt     string
	Credential string
	TaskID     string
}

// Response is a successful invocation.
type Response struct {
	Text             string
	Model            string
	Duration         time.Duration
	PromptTokens     int
	CandidatesTokens int
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithClassifier replaces the default SubstringClassifier.
func WithClassifier(c Classifier) Option {
	return func(g *Gateway) {
		if c != nil {
			g.classifier = c
		}
	}
}

// Gateway mediates every call to the model provider. The last client that
// completed a call is cached and reused when no credential is supplied.
type Gateway struct {
	cfg        GatewayConfig
	http       HTTPDoer
	classifier Classifier
	pacer      *ratecontrol.Pacer
	logger     *zap.Logger

	mu     sync.Mutex
	cached *Client
}

// NewGateway creates a gateway sending requests through doer.
func NewGateway(cfg GatewayConfig, doer HTTPDoer, logger *zap.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CredentialPrefix == "" {
		cfg.CredentialPrefix = DefaultCredentialPrefix
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	g := &Gateway{
		cfg:        cfg,
		http:       doer,
		classifier: SubstringClassifier{},
		pacer:      ratecontrol.NewPacer(cfg.RateLimit),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the configured model name.
func (g *Gateway) Model() string { return g.cfg.Model }

// HasCredential reports whether a call without a supplied credential can proceed.
func (g *Gateway) HasCredential() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cached != nil || g.cfg.DefaultCredential != ""
}

// Invoke sends one prompt and waits for the full response. Every failure is
// returned as a *GatewayError; nothing is retried.
func (g *Gateway) Invoke(ctx context.Context, req InvokeRequest) (*Response, error) {
	client, supplied, err := g.resolveClient(req.Credential)
	if err != nil {
		return nil, g.fail(req.TaskID, g.cfg.Model, "", KindNoCredential, err, 0)
	}

	if err := g.pacer.Wait(ctx, ratecontrol.EstimateTokens(req.Prompt)); err != nil {
		return nil, g.fail(req.TaskID, client.Model(), client.Fingerprint(), g.classify(err), err, 0)
	}

	start := time.Now()
	completion, err := client.Generate(ctx, req.Prompt)
	duration := time.Since(start)
	if err != nil {
		return nil, g.fail(req.TaskID, client.Model(), client.Fingerprint(), g.classify(err), err, duration)
	}

	if supplied {
		g.mu.Lock()
		g.cached = client
		g.mu.Unlock()
	}

	g.logger.Info("Model invocation completed",
		zap.String("task_id", req.TaskID),
		zap.String("model", client.Model()),
		zap.String("key_fingerprint", client.Fingerprint()),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", completion.PromptTokens),
		zap.Int("candidates_tokens", completion.CandidatesTokens),
	)
	metrics.RecordModelInvocation(client.Model(), "ok", duration.Seconds(), completion.PromptTokens, completion.CandidatesTokens)

	return &Response{
		Text:             completion.Text,
		Model:            client.Model(),
		Duration:         duration,
		PromptTokens:     completion.PromptTokens,
		CandidatesTokens: completion.CandidatesTokens,
	}, nil
}

// resolveClient applies credential precedence: a supplied credential always
// builds a fresh client, otherwise the cached client, otherwise the default.
func (g *Gateway) resolveClient(credential string) (*Client, bool, error) {
	credential = strings.TrimSpace(credential)
	if credential != "" {
		g.checkPrefix(credential)
		metrics.ModelClientBuilds.WithLabelValues("supplied").Inc()
		return g.newClient(credential), true, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cached != nil {
		return g.cached, false, nil
	}
	if g.cfg.DefaultCredential == "" {
		g.logger.Warn("No model credential available; AI functionality is limited")
		return nil, false, ErrNoCredential
	}
	g.checkPrefix(g.cfg.DefaultCredential)
	metrics.ModelClientBuilds.WithLabelValues("default").Inc()
	g.cached = g.newClient(g.cfg.DefaultCredential)
	return g.cached, false, nil
}

func (g *Gateway) newClient(credential string) *Client {
	c := NewClient(g.http, g.cfg.BaseURL, g.cfg.Model, credential, g.cfg.Generation)
	g.logger.Debug("Model client constructed",
		zap.String("model", c.Model()),
		zap.String("key_fingerprint", c.Fingerprint()),
	)
	return c
}

func (g *Gateway) checkPrefix(credential string) {
	if !strings.HasPrefix(credential, g.cfg.CredentialPrefix) {
		g.logger.Warn("API key format appears incorrect",
			zap.String("expected_prefix", g.cfg.CredentialPrefix),
			zap.String("key_fingerprint", KeyFingerprint(credential)),
		)
	}
}

func (g *Gateway) classify(err error) ErrorKind {
	kind := g.classifier.Classify(err)
	if kind == "" {
		return KindUnknown
	}
	return kind
}

func (g *Gateway) fail(taskID, model, fingerprint string, kind ErrorKind, cause error, duration time.Duration) *GatewayError {
	g.logger.Error("Model invocation failed",
		zap.String("task_id", taskID),
		zap.String("model", model),
		zap.String("key_fingerprint", fingerprint),
		zap.String("error_kind", string(kind)),
		zap.Duration("duration", duration),
		zap.Error(cause),
	)
	metrics.RecordModelInvocation(model, string(kind), duration.Seconds(), 0, 0)
	return &GatewayError{Kind: kind, Cause: cause}
}
