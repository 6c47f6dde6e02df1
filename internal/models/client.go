package models

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Kocoro-lab/travelian/internal/tracing"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"

	// maxResponseSize bounds how much of a provider response is read.
	maxResponseSize = 10 * 1024 * 1024
)

// GenerationConfig holds sampling parameters sent with every request.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature" mapstructure:"temperature"`
	TopP            float64 `json:"topP" mapstructure:"top_p"`
	TopK            int     `json:"topK" mapstructure:"top_k"`
	MaxOutputTokens int     `json:"maxOutputTokens" mapstructure:"max_output_tokens"`
}

// DefaultGenerationConfig matches the sampling used for itinerary generation.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.7,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: 8192,
	}
}

// HTTPDoer is satisfied by *http.Client and circuitbreaker.HTTPWrapper.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the Gemini generateContent endpoint with a single credential.
// A Client is immutable once built.
type Client struct {
	http        HTTPDoer
	baseURL     string
	model       string
	credential  string
	fingerprint string
	generation  GenerationConfig
}

// Completion is the text and usage returned by one generate call.
type Completion struct {
	Text             string
	PromptTokens     int
	CandidatesTokens int
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewClient builds a client for credential.
func NewClient(doer HTTPDoer, baseURL, model, credential string, gen GenerationConfig) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		http:        doer,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		credential:  credential,
		fingerprint: KeyFingerprint(credential),
		generation:  gen,
	}
}

// Model returns the model name this client targets.
func (c *Client) Model() string { return c.model }

// Fingerprint identifies the credential in logs without revealing it.
func (c *Client) Fingerprint() string { return c.fingerprint }

// Generate sends prompt as a single user turn.
func (c *Client) Generate(ctx context.Context, prompt string) (*Completion, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: c.generation,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPost, url)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.credential)
	tracing.InjectTraceparent(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && er.Error.Message != "" {
			apiErr.Status = er.Error.Status
			apiErr.Message = er.Error.Message
		}
		return nil, apiErr
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("gemini: prompt blocked: %s", out.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("gemini: response contained no candidates")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return &Completion{
		Text:             sb.String(),
		PromptTokens:     out.UsageMetadata.PromptTokenCount,
		CandidatesTokens: out.UsageMetadata.CandidatesTokenCount,
	}, nil
}

// KeyFingerprint returns a short stable identifier for a credential.
func KeyFingerprint(credential string) string {
	if credential == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:4])
}
