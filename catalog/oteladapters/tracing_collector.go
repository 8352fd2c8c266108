package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

const (
	attrStatus      = "status"
	statusOK        = "ok"
	statusFailed    = "failed"
	statusCanceled  = "canceled"
	statusCancelled = "cancelled"
	statusTimeout   = "timeout"
	statusConflict  = "conflict"
	statusNotFound  = "not_found"
	statusInvalid   = "invalid"

	descriptionFailed   = "operation failed"
	descriptionCanceled = "operation canceled"
	descriptionTimeout  = "operation timed out"
	descriptionConflict = "conflict"
	descriptionNotFound = "document not found"
	descriptionInvalid  = "invalid input"
)

// TracingCollector creates one OpenTelemetry span per catalog operation.
type TracingCollector struct {
	tracer trace.Tracer
}

var _ catalog.TracingCollector = (*TracingCollector)(nil)

func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a span as child of the span in ctx and returns the context carrying it.
func (t *TracingCollector) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, catalog.SpanContext) {

	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attributes(attrs)...))

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan adds the final attributes, sets the status and ends the span.
// SpanContexts that were not started by a TracingCollector are ignored.
func (t *TracingCollector) FinishSpan(spanCtx catalog.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	otelSpanCtx.span.SetAttributes(attributes(attrs)...)
	otelSpanCtx.SetStatus(status)
	otelSpanCtx.span.End()
}

// OTelSpanContext is the catalog.SpanContext of an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

var _ catalog.SpanContext = (*OTelSpanContext)(nil)

// SetStatus maps the status onto an OpenTelemetry status code.
// Unknown statuses leave the code unset and are recorded as a "status" attribute.
func (s *OTelSpanContext) SetStatus(status string) {
	switch status {
	case catalog.StatusSuccess, statusOK:
		s.span.SetStatus(codes.Ok, "")
	case catalog.StatusError, statusFailed:
		s.span.SetStatus(codes.Error, descriptionFailed)
	case statusCanceled, statusCancelled:
		s.span.SetStatus(codes.Error, descriptionCanceled)
	case statusTimeout:
		s.span.SetStatus(codes.Error, descriptionTimeout)
	case statusConflict:
		s.span.SetStatus(codes.Error, descriptionConflict)
	case statusNotFound:
		s.span.SetStatus(codes.Error, descriptionNotFound)
	case statusInvalid:
		s.span.SetStatus(codes.Error, descriptionInvalid)
	default:
		s.span.SetAttributes(attribute.String(attrStatus, status))
	}
}

func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}
