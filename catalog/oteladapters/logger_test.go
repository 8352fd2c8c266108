package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/tour-catalog-go/catalog/oteladapters"
)

type emittedRecord struct {
	body     string
	severity log.Severity
	attrs    map[string]string
	span     trace.SpanContext
}

// recordingLoggerProvider keeps every emitted record in memory.
type recordingLoggerProvider struct {
	embedded.LoggerProvider

	mu      sync.Mutex
	records []emittedRecord
}

func (p *recordingLoggerProvider) Logger(_ string, _ ...log.LoggerOption) log.Logger {
	return &recordingLogger{provider: p}
}

func (p *recordingLoggerProvider) Records() []emittedRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]emittedRecord(nil), p.records...)
}

type recordingLogger struct {
	embedded.Logger

	provider *recordingLoggerProvider
}

func (l *recordingLogger) Emit(ctx context.Context, record log.Record) {
	attrs := make(map[string]string)
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value.String()
		return true
	})

	l.provider.mu.Lock()
	defer l.provider.mu.Unlock()

	l.provider.records = append(l.provider.records, emittedRecord{
		body:     record.Body().AsString(),
		severity: record.Severity(),
		attrs:    attrs,
		span:     trace.SpanContextFromContext(ctx),
	})
}

func (l *recordingLogger) Enabled(_ context.Context, _ log.EnabledParameters) bool {
	return true
}

func Test_SlogBridgeLogger_CorrelatesRecordsWithTheActiveSpan(t *testing.T) {
	// arrange
	provider := &recordingLoggerProvider{}
	logger := oteladapters.NewSlogBridgeLogger("test", provider)

	tracerProvider := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tracerProvider.Shutdown(context.Background()) })
	ctx, span := tracerProvider.Tracer("test").Start(context.Background(), "catalog.create")
	defer span.End()

	// act
	logger.InfoContext(ctx, "tour persisted", "tour_slug", "the-forest-hiker")
	logger.Warn("without context")

	// assert
	records := provider.Records()
	require.Len(t, records, 2)

	assert.Equal(t, "tour persisted", records[0].body)
	assert.Equal(t, log.SeverityInfo, records[0].severity)
	assert.Equal(t, "the-forest-hiker", records[0].attrs["tour_slug"])
	assert.Equal(t, span.SpanContext().TraceID(), records[0].span.TraceID())
	assert.Equal(t, span.SpanContext().SpanID(), records[0].span.SpanID())

	assert.Equal(t, log.SeverityWarn, records[1].severity)
	assert.False(t, records[1].span.IsValid())
}

func Test_SlogBridgeLoggerWithHandler_WritesAllLevels(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug message")
	logger.Info("info message")
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "error message", "error", "boom")

	// assert
	output := buf.String()
	assert.Contains(t, output, `"level":"DEBUG","msg":"debug message"`)
	assert.Contains(t, output, `"level":"INFO","msg":"info message"`)
	assert.Contains(t, output, `"level":"WARN","msg":"warn message"`)
	assert.Contains(t, output, `"level":"ERROR","msg":"error message","error":"boom"`)
}

func Test_OTelLogger_EmitsRecordsWithStringAttributes(t *testing.T) {
	// arrange
	provider := &recordingLoggerProvider{}
	logger := oteladapters.NewOTelLogger(provider.Logger("test"))
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "executed sql", "duration_ms", 1.5)
	logger.ErrorContext(ctx, "post hook failed", "hook", "audit", 42, "not a key", "dangling")

	// assert
	records := provider.Records()
	require.Len(t, records, 2)

	assert.Equal(t, "executed sql", records[0].body)
	assert.Equal(t, log.SeverityDebug, records[0].severity)
	assert.Equal(t, map[string]string{"duration_ms": "1.5"}, records[0].attrs)

	assert.Equal(t, log.SeverityError, records[1].severity)
	assert.Equal(t, map[string]string{"hook": "audit"}, records[1].attrs)
}
