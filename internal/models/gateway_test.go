package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Kocoro-lab/travelian/internal/circuitbreaker"
)

// fakeGemini records the credential and prompt of every request and answers
// with a canned status per credential.
type fakeGemini struct {
	mu       sync.Mutex
	keys     []string
	prompts  []string
	statuses map[string]int
	delay    time.Duration
}

func (f *fakeGemini) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)

		var body generateRequest
		raw, _ := io.ReadAll(r.Body)
		if !assert.NoError(t, json.Unmarshal(raw, &body)) || len(body.Contents) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		key := r.Header.Get("x-goog-api-key")
		f.mu.Lock()
		f.keys = append(f.keys, key)
		f.prompts = append(f.prompts, body.Contents[0].Parts[0].Text)
		status := f.statuses[key]
		delay := f.delay
		f.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if status != 0 && status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"denied by fake","status":"FAKE"}}`, status)
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello "},{"text":"traveller"}]}}],"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":3}}`))
	}
}

func (f *fakeGemini) seenKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func (f *fakeGemini) seenPrompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func newTestGateway(t *testing.T, fake *fakeGemini, defaultKey string, opts ...Option) *Gateway {
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	return NewGateway(GatewayConfig{
		BaseURL:           srv.URL,
		Model:             "gemini-test",
		DefaultCredential: defaultKey,
		Generation:        DefaultGenerationConfig(),
	}, srv.Client(), zaptest.NewLogger(t), opts...)
}

func TestGatewayNoCredential(t *testing.T) {
	fake := &fakeGemini{}
	g := newTestGateway(t, fake, "")
	assert.False(t, g.HasCredential())

	_, err := g.Invoke(context.Background(), InvokeRequest{Prompt: "hi", TaskID: "chatbot"})
	require.Error(t, err)
	gerr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, KindNoCredential, gerr.Kind)
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Empty(t, fake.seenKeys())
}

func TestGatewayDefaultCredential(t *testing.T) {
	fake := &fakeGemini{}
	g := newTestGateway(t, fake, "AIdefault")
	assert.True(t, g.HasCredential())

	resp, err := g.Invoke(context.Background(), InvokeRequest{Prompt: "plan my trip", TaskID: "research"})
	require.NoError(t, err)
	assert.Equal(t, "hello traveller", resp.Text)
	assert.Equal(t, "gemini-test", resp.Model)
	assert.Equal(t, 12, resp.PromptTokens)
	assert.Equal(t, 3, resp.CandidatesTokens)
	assert.Equal(t, []string{"AIdefault"}, fake.seenKeys())
	assert.Equal(t, []string{"plan my trip"}, fake.seenPrompts())
}

func TestGatewaySuppliedCredentialTakesPrecedenceAndIsCached(t *testing.T) {
	fake := &fakeGemini{}
	g := newTestGateway(t, fake, "AIdefault")
	ctx := context.Background()

	_, err := g.Invoke(ctx, InvokeRequest{Prompt: "a"})
	require.NoError(t, err)
	_, err = g.Invoke(ctx, InvokeRequest{Prompt: "b", Credential: "AIuser"})
	require.NoError(t, err)
	_, err = g.Invoke(ctx, InvokeRequest{Prompt: "c"})
	require.NoError(t, err)

	assert.Equal(t, []string{"AIdefault", "AIuser", "AIuser"}, fake.seenKeys())
}

func TestGatewayFailedSuppliedCredentialIsNotCached(t *testing.T) {
	fake := &fakeGemini{statuses: map[string]int{"AIrevoked": http.StatusForbidden}}
	g := newTestGateway(t, fake, "AIdefault")
	ctx := context.Background()

	_, err := g.Invoke(ctx, InvokeRequest{Prompt: "a", Credential: "AIrevoked"})
	require.Error(t, err)
	gerr, _ := AsGatewayError(err)
	assert.Equal(t, KindAuthRejected, gerr.Kind)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "denied by fake", apiErr.Message)

	_, err = g.Invoke(ctx, InvokeRequest{Prompt: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AIrevoked", "AIdefault"}, fake.seenKeys())
}

func TestGatewaySuspiciousPrefixIsNotRejected(t *testing.T) {
	fake := &fakeGemini{}
	g := newTestGateway(t, fake, "")

	_, err := g.Invoke(context.Background(), InvokeRequest{Prompt: "a", Credential: "sk-not-gemini"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sk-not-gemini"}, fake.seenKeys())
}

func TestGatewayRateLimited(t *testing.T) {
	fake := &fakeGemini{statuses: map[string]int{"AIbusy": http.StatusTooManyRequests}}
	g := newTestGateway(t, fake, "AIbusy")

	_, err := g.Invoke(context.Background(), InvokeRequest{Prompt: "a"})
	gerr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, KindRateLimited, gerr.Kind)
	assert.Contains(t, gerr.Error(), "HTTP 429")
}

func TestGatewayTimeout(t *testing.T) {
	fake := &fakeGemini{delay: 200 * time.Millisecond}
	g := newTestGateway(t, fake, "AIslow")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := g.Invoke(ctx, InvokeRequest{Prompt: "a"})
	gerr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, gerr.Kind)
}

func TestGatewayCustomClassifier(t *testing.T) {
	fake := &fakeGemini{statuses: map[string]int{"AIx": http.StatusBadRequest}}
	g := newTestGateway(t, fake, "AIx", WithClassifier(ClassifierFunc(func(error) ErrorKind {
		return KindQuotaExceeded
	})))

	_, err := g.Invoke(context.Background(), InvokeRequest{Prompt: "a"})
	gerr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, KindQuotaExceeded, gerr.Kind)
}

func TestGatewayOpenBreakerIsUnknown(t *testing.T) {
	fake := &fakeGemini{statuses: map[string]int{"AIdown": http.StatusBadGateway}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	doer := circuitbreaker.NewHTTPWrapper(srv.Client(), "gemini-test", "models-test",
		circuitbreaker.Settings{FailureThreshold: 1, Timeout: time.Minute}, zaptest.NewLogger(t))
	g := NewGateway(GatewayConfig{BaseURL: srv.URL, DefaultCredential: "AIdown"}, doer, zaptest.NewLogger(t))

	_, err := g.Invoke(context.Background(), InvokeRequest{Prompt: "a"})
	require.Error(t, err)

	_, err = g.Invoke(context.Background(), InvokeRequest{Prompt: "b"})
	gerr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnknown, gerr.Kind)
	assert.True(t, errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen))
	assert.Len(t, fake.seenKeys(), 1)
}

func TestGatewayConcurrentInvocations(t *testing.T) {
	fake := &fakeGemini{}
	g := newTestGateway(t, fake, "AIdefault")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cred := ""
			if i%2 == 0 {
				cred = "AIuser"
			}
			_, err := g.Invoke(context.Background(), InvokeRequest{Prompt: "p", Credential: cred})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, fake.seenKeys(), 8)
}

func TestKeyFingerprint(t *testing.T) {
	assert.Empty(t, KeyFingerprint(""))
	fp := KeyFingerprint("AIsecret")
	assert.Len(t, fp, 8)
	assert.Equal(t, fp, KeyFingerprint("AIsecret"))
	assert.NotContains(t, fp, "secret")
}
