package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
	"github.com/AntonStoeckl/tour-catalog-go/catalog/oteladapters"
)

func givenTracingCollector() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter, trace.Tracer) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracer := provider.Tracer("test")

	return oteladapters.NewTracingCollector(tracer), exporter, tracer
}

func spanAttribute(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) {
			return attr.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_RecordsStartAndFinishAttributes(t *testing.T) {
	// arrange
	collector, exporter, _ := givenTracingCollector()

	// act
	_, spanCtx := collector.StartSpan(context.Background(), "catalog.find", map[string]string{catalog.LabelOperation: "find"})
	spanCtx.AddAttribute("query", "difficulty=easy")
	collector.FinishSpan(spanCtx, catalog.StatusSuccess, map[string]string{"result_count": "3"})

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "catalog.find", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	for key, expected := range map[string]string{
		catalog.LabelOperation: "find",
		"query":                "difficulty=easy",
		"result_count":         "3",
	} {
		actual, found := spanAttribute(spans[0], key)
		assert.True(t, found, "missing attribute %s", key)
		assert.Equal(t, expected, actual)
	}
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	tests := []struct {
		status       string
		expectedCode codes.Code
	}{
		{status: catalog.StatusSuccess, expectedCode: codes.Ok},
		{status: "ok", expectedCode: codes.Ok},
		{status: catalog.StatusError, expectedCode: codes.Error},
		{status: "canceled", expectedCode: codes.Error},
		{status: "timeout", expectedCode: codes.Error},
		{status: "conflict", expectedCode: codes.Error},
		{status: "not_found", expectedCode: codes.Error},
		{status: "partial", expectedCode: codes.Unset},
	}

	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			// arrange
			collector, exporter, _ := givenTracingCollector()
			_, spanCtx := collector.StartSpan(context.Background(), "catalog.create", nil)

			// act
			collector.FinishSpan(spanCtx, tc.status, nil)

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)
		})
	}
}

func Test_TracingCollector_When_StatusIsUnknown_ItIsRecordedAsAttribute(t *testing.T) {
	// arrange
	collector, exporter, _ := givenTracingCollector()
	_, spanCtx := collector.StartSpan(context.Background(), "catalog.create", nil)

	// act
	collector.FinishSpan(spanCtx, "partial", nil)

	// assert
	status, found := spanAttribute(exporter.GetSpans()[0], "status")
	assert.True(t, found)
	assert.Equal(t, "partial", status)
}

func Test_TracingCollector_StartSpan_CreatesAChildOfTheSpanInContext(t *testing.T) {
	// arrange
	collector, exporter, tracer := givenTracingCollector()
	parentCtx, parent := tracer.Start(context.Background(), "http.request")

	// act
	_, spanCtx := collector.StartSpan(parentCtx, "catalog.find", nil)
	collector.FinishSpan(spanCtx, catalog.StatusSuccess, nil)
	parent.End()

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "catalog.find", spans[0].Name)
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, parent.SpanContext().TraceID(), spans[0].SpanContext.TraceID())
}

type foreignSpanContext struct{}

func (foreignSpanContext) SetStatus(string)            {}
func (foreignSpanContext) AddAttribute(string, string) {}

func Test_TracingCollector_FinishSpan_When_SpanContextIsForeign(t *testing.T) {
	// arrange
	collector, exporter, _ := givenTracingCollector()

	// act
	collector.FinishSpan(foreignSpanContext{}, catalog.StatusSuccess, nil)

	// assert
	assert.Empty(t, exporter.GetSpans())
}
