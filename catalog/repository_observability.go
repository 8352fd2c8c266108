package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	MetricQueryDuration     = "catalog_query_duration_seconds"
	MetricPersistDuration   = "catalog_persist_duration_seconds"
	MetricDocumentsReturned = "catalog_documents_returned"
	MetricOperationErrors   = "catalog_operation_errors_total"
	MetricHookFaults        = "catalog_hook_faults_total"

	SpanNamePrefix = "catalog."

	StatusSuccess = "success"
	StatusError   = "error"

	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelHook      = "hook"
	LabelHookEvent = "hook_event"

	spanAttrResultCount = "result_count"
	spanAttrDurationMS  = "duration_ms"
)

const (
	errorTypeValidation  = "validation"
	errorTypeUniqueness  = "uniqueness_conflict"
	errorTypeQueryParse  = "query_parse"
	errorTypeHook        = "hook_execution"
	errorTypeConcurrency = "concurrency_conflict"
	errorTypeNotFound    = "not_found"
	errorTypeCanceled    = "canceled"
	errorTypeStore       = "store"
)

// errorType classifies an error for metrics labels and span attributes.
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrValidationFailed):
		return errorTypeValidation
	case errors.Is(err, ErrUniquenessConflict):
		return errorTypeUniqueness
	case errors.Is(err, ErrQueryParse):
		return errorTypeQueryParse
	case errors.Is(err, ErrHookExecution):
		return errorTypeHook
	case errors.Is(err, ErrConcurrencyConflict):
		return errorTypeConcurrency
	case errors.Is(err, ErrDocumentNotFound):
		return errorTypeNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errorTypeCanceled
	default:
		return errorTypeStore
	}
}

func isReadOperation(name OperationName) bool {
	switch name {
	case OperationFind, OperationFindByID, OperationFindBySlug, OperationAggregate:
		return true
	default:
		return false
	}
}

// operationObserver encapsulates the span and metrics lifecycle of one repository operation.
type operationObserver struct {
	r     TourRepository
	ctx   context.Context
	name  OperationName
	span  SpanContext
	start time.Time
}

// startObservation starts the tracing span (if configured) and the duration measurement.
func (r TourRepository) startObservation(ctx context.Context, name OperationName) (*operationObserver, context.Context) {
	var span SpanContext
	if r.tracingCollector != nil {
		ctx, span = r.tracingCollector.StartSpan(ctx, SpanNamePrefix+name.String(), map[string]string{
			LabelOperation: name.String(),
		})
	}

	return &operationObserver{r: r, ctx: ctx, name: name, span: span, start: time.Now()}, ctx
}

// finish records duration, result count and errors, and closes the span.
func (o *operationObserver) finish(err error, resultCount int) {
	duration := time.Since(o.start)
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}

	metric := MetricPersistDuration
	if isReadOperation(o.name) {
		metric = MetricQueryDuration
	}

	o.r.recordDuration(o.ctx, metric, duration, o.name, status)

	attrs := map[string]string{spanAttrDurationMS: fmt.Sprintf("%.2f", durationToMilliseconds(duration))}

	if err != nil {
		errType := errorType(err)
		o.r.incrementCounter(o.ctx, MetricOperationErrors, map[string]string{
			LabelOperation: o.name.String(),
			LabelStatus:    status,
			LabelErrorType: errType,
		})
		attrs[LabelErrorType] = errType
	} else {
		if isReadOperation(o.name) {
			o.r.recordValue(o.ctx, MetricDocumentsReturned, float64(resultCount), o.name, status)
			attrs[spanAttrResultCount] = strconv.Itoa(resultCount)
		}

		o.r.logOperationContext(o.ctx, logMsgOperationCompleted,
			logAttrOperation, o.name.String(),
			logAttrResultCount, resultCount,
			logAttrDurationMS, durationToMilliseconds(duration),
		)
	}

	if o.span != nil && o.r.tracingCollector != nil {
		o.span.SetStatus(status)
		o.r.tracingCollector.FinishSpan(o.span, status, attrs)
	}
}

// reportFaults logs and counts the faults of post-* hooks. They never reach the caller.
func (r TourRepository) reportFaults(ctx context.Context, faults []error) {
	for _, fault := range faults {
		labels := map[string]string{}

		var observabilityFault *ObservabilityFault
		if errors.As(fault, &observabilityFault) {
			labels[LabelHookEvent] = observabilityFault.Event.String()
			labels[LabelHook] = observabilityFault.Hook
		}

		r.logErrorContext(ctx, logMsgHookFault, fault,
			logAttrHookEvent, labels[LabelHookEvent],
			logAttrHook, labels[LabelHook],
		)
		r.incrementCounter(ctx, MetricHookFaults, labels)
	}
}

func (r TourRepository) recordDuration(
	ctx context.Context,
	metric string,
	duration time.Duration,
	name OperationName,
	status string,
) {
	if r.metricsCollector == nil {
		return
	}

	labels := map[string]string{LabelOperation: name.String(), LabelStatus: status}

	if contextualCollector, ok := r.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
	} else {
		r.metricsCollector.RecordDuration(metric, duration, labels)
	}
}

func (r TourRepository) recordValue(ctx context.Context, metric string, value float64, name OperationName, status string) {
	if r.metricsCollector == nil {
		return
	}

	labels := map[string]string{LabelOperation: name.String(), LabelStatus: status}

	if contextualCollector, ok := r.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
	} else {
		r.metricsCollector.RecordValue(metric, value, labels)
	}
}

func (r TourRepository) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if r.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := r.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
	} else {
		r.metricsCollector.IncrementCounter(metric, labels)
	}
}

// logOperationContext logs at info level, preferring the contextual logger.
func (r TourRepository) logOperationContext(ctx context.Context, msg string, args ...any) {
	switch {
	case r.contextualLogger != nil:
		r.contextualLogger.InfoContext(ctx, msg, args...)
	case r.logger != nil:
		r.logger.Info(msg, args...)
	}
}

// logErrorContext logs at error level, preferring the contextual logger.
func (r TourRepository) logErrorContext(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	switch {
	case r.contextualLogger != nil:
		r.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	case r.logger != nil:
		r.logger.Error(msg, allArgs...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
