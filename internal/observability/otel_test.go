package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestParseOtelHeaders(t *testing.T) {
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, parseOtelHeaders(" a=1, bad ,b = 2,c="))
	require.Nil(t, parseOtelHeaders("  "))
}

func TestParseSampleRatio(t *testing.T) {
	require.Equal(t, 1.0, parseSampleRatio("3"))
	require.Equal(t, 0.0, parseSampleRatio("-1"))
	require.Equal(t, 0.25, parseSampleRatio(" 0.25 "))
	require.Equal(t, defaultSampleRatio, parseSampleRatio("junk"))
}

func TestOtelConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-token=abc")
	t.Setenv("OTEL_SAMPLER_RATIO", "0.5")

	cfg := OtelConfigFromEnv("skillhub-backend", "prod", "1.2.3")
	require.True(t, cfg.Enabled)
	require.Equal(t, "collector:4318", cfg.Endpoint)
	require.Equal(t, map[string]string{"x-token": "abc"}, cfg.Headers)
	require.Equal(t, 0.5, cfg.SampleRatio)
	require.Equal(t, "1.2.3", cfg.Version)
}

func TestEndSpanRecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, ok := tp.Tracer("test").Start(context.Background(), "skills.publish")
	EndSpan(ok, nil)
	_, failed := tp.Tracer("test").Start(context.Background(), "skills.publish")
	EndSpan(failed, errors.New("embedding failed"))

	ended := rec.Ended()
	require.Len(t, ended, 2)
	require.Equal(t, codes.Unset, ended[0].Status().Code)
	require.Equal(t, codes.Error, ended[1].Status().Code)
	require.Equal(t, "embedding failed", ended[1].Status().Description)
}
