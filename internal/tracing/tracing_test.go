package tracing

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

func TestInitializeDisabled(t *testing.T) {
	shutdown, err := Initialize(Config{}, "test", zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	assert.Empty(t, W3CTraceparent(ctx))
}

func TestInjectTraceparent(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://example.invalid", nil)
	require.NoError(t, err)
	InjectTraceparent(ctx, req)

	tp2 := req.Header.Get("traceparent")
	require.NotEmpty(t, tp2)
	parts := strings.Split(tp2, "-")
	require.Len(t, parts, 4)
	assert.Equal(t, "00", parts[0])
	assert.Equal(t, span.SpanContext().TraceID().String(), parts[1])
	assert.Equal(t, span.SpanContext().SpanID().String(), parts[2])
}

func TestInjectTraceparentWithoutSpan(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.invalid", nil)
	require.NoError(t, err)
	InjectTraceparent(context.Background(), req)
	assert.Empty(t, req.Header.Get("traceparent"))
}
