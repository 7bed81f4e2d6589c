package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// memoryExporter keeps exported OTel log records.
type memoryExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *memoryExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *memoryExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryExporter) ForceFlush(context.Context) error { return nil }

func (e *memoryExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew_RequestScopedKeys(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Service: "festival-hub"})

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithUserID(ctx, "user-1")
	ctx = WithRoute(ctx, "/festivals/manage")

	l.InfoContext(ctx, "access denied")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "access denied", entry["msg"])
	assert.Equal(t, "festival-hub", entry["service"])
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.Equal(t, "/festivals/manage", entry["festival.route"])
	assert.NotContains(t, entry, "trace_id")
}

func TestNew_PartialKeys(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf})

	l.InfoContext(WithRequestID(context.Background(), "req-9"), "check-auth")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-9", entry["request_id"])
	assert.NotContains(t, entry, "user_id")
	assert.NotContains(t, entry, "festival.route")
}

func TestNew_TraceContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf})

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	l.InfoContext(ctx, "with trace")

	entry := decodeLine(t, &buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: "warn"})

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.Equal(t, "kept", decodeLine(t, &buf)["msg"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestFanout(t *testing.T) {
	var a, b bytes.Buffer
	h := fanout{
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}
	l := slog.New(h).With("k", "v")

	l.Info("info only")

	assert.Contains(t, a.String(), `"k":"v"`)
	assert.Zero(t, b.Len())
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestNew_OTelBridge(t *testing.T) {
	exp := &memoryExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: "info", OTel: true, LoggerProvider: provider})

	l.Debug("below level")
	l.InfoContext(WithRequestID(context.Background(), "req-1"), "sign-out failed")

	assert.Equal(t, []string{"sign-out failed"}, exp.bodies())
	assert.Equal(t, "req-1", decodeLine(t, &buf)["request_id"])
}
