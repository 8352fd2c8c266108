package shell

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

const (
	// QueryHandlerDurationMetric tracks the duration of query handler executions.
	QueryHandlerDurationMetric = "queryhandler_handle_duration_seconds"

	// QueryHandlerCallsMetric counts query handler executions by type and status.
	QueryHandlerCallsMetric = "queryhandler_handle_calls_total"

	// QueryHandlerCanceledMetric counts query handler executions stopped by context cancellation.
	QueryHandlerCanceledMetric = "queryhandler_canceled_operations_total"

	// QueryHandlerTimeoutMetric counts query handler executions stopped by a context deadline.
	QueryHandlerTimeoutMetric = "queryhandler_timeout_operations_total"

	StatusSuccess  = "success"
	StatusError    = "error"
	StatusCanceled = "canceled"
	StatusTimeout  = "timeout"

	LogMsgQueryStarted   = "query handler started"
	LogMsgQueryCompleted = "query handler completed"
	LogMsgQueryFailed    = "query handler failed"

	LogAttrQueryType   = "query_type"
	LogAttrStatus      = "status"
	LogAttrDurationMS  = "duration_ms"
	LogAttrError       = "error"
	LogAttrResultCount = "result_count"

	// SpanNameQueryHandle is the tracing span name for query handling.
	SpanNameQueryHandle = "queryhandler.handle"
)

// Observers bundles the optional observability collaborators of a query handler.
// Every field may be nil.
type Observers struct {
	Metrics          catalog.MetricsCollector
	Tracing          catalog.TracingCollector
	ContextualLogger catalog.ContextualLogger
	Logger           catalog.Logger
}

// QueryRun is one instrumented execution of a query handler.
type QueryRun struct {
	ctx       context.Context
	observers Observers
	queryType string
	start     time.Time
	span      catalog.SpanContext
}

// StartQuery opens the span and logs the start of a query handler execution.
// The returned context carries the span and should be passed to the store.
func StartQuery(ctx context.Context, observers Observers, queryType string) (context.Context, *QueryRun) {
	run := &QueryRun{observers: observers, queryType: queryType, start: time.Now()}

	if observers.Tracing != nil {
		ctx, run.span = observers.Tracing.StartSpan(ctx, SpanNameQueryHandle, map[string]string{
			LogAttrQueryType: queryType,
		})
	}

	run.ctx = ctx
	run.log(LogMsgQueryStarted, LogAttrQueryType, queryType)

	return ctx, run
}

// Succeeded records a successful execution which produced resultCount items.
func (r *QueryRun) Succeeded(resultCount int) {
	duration := time.Since(r.start)

	r.recordMetrics(StatusSuccess, duration)
	r.finishSpan(StatusSuccess, duration, nil, resultCount)
	r.log(LogMsgQueryCompleted,
		LogAttrQueryType, r.queryType,
		LogAttrStatus, StatusSuccess,
		LogAttrResultCount, resultCount,
		LogAttrDurationMS, ToMilliseconds(duration),
	)
}

// Failed records a failed execution, classifying cancellation and timeout.
func (r *QueryRun) Failed(err error) {
	duration := time.Since(r.start)
	status := StatusError

	switch {
	case IsCancellationError(err):
		status = StatusCanceled
	case IsTimeoutError(err):
		status = StatusTimeout
	}

	r.recordMetrics(status, duration)
	r.finishSpan(status, duration, err, 0)

	args := []any{
		LogAttrQueryType, r.queryType,
		LogAttrStatus, status,
		LogAttrError, err.Error(),
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	if r.observers.ContextualLogger != nil {
		r.observers.ContextualLogger.ErrorContext(r.ctx, LogMsgQueryFailed, args...)
	} else if r.observers.Logger != nil {
		r.observers.Logger.Error(LogMsgQueryFailed, args...)
	}
}

func (r *QueryRun) recordMetrics(status string, duration time.Duration) {
	collector := r.observers.Metrics
	if collector == nil {
		return
	}

	labels := BuildQueryLabels(r.queryType, status)

	var extraCounter string
	switch status {
	case StatusCanceled:
		extraCounter = QueryHandlerCanceledMetric
	case StatusTimeout:
		extraCounter = QueryHandlerTimeoutMetric
	}

	if contextual, ok := collector.(catalog.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(r.ctx, QueryHandlerDurationMetric, duration, labels)
		contextual.IncrementCounterContext(r.ctx, QueryHandlerCallsMetric, labels)
		if extraCounter != "" {
			contextual.IncrementCounterContext(r.ctx, extraCounter, labels)
		}
		return
	}

	collector.RecordDuration(QueryHandlerDurationMetric, duration, labels)
	collector.IncrementCounter(QueryHandlerCallsMetric, labels)
	if extraCounter != "" {
		collector.IncrementCounter(extraCounter, labels)
	}
}

func (r *QueryRun) finishSpan(status string, duration time.Duration, err error, resultCount int) {
	if r.observers.Tracing == nil || r.span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:      status,
		LogAttrDurationMS:  strconv.FormatFloat(ToMilliseconds(duration), 'f', 3, 64),
		LogAttrResultCount: strconv.Itoa(resultCount),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	r.observers.Tracing.FinishSpan(r.span, status, attrs)
}

func (r *QueryRun) log(msg string, args ...any) {
	if r.observers.ContextualLogger != nil {
		r.observers.ContextualLogger.InfoContext(r.ctx, msg, args...)
	} else if r.observers.Logger != nil {
		r.observers.Logger.Info(msg, args...)
	}
}

// BuildQueryLabels creates standard metric labels for query handler operations.
func BuildQueryLabels(queryType, status string) map[string]string {
	return map[string]string{
		LogAttrQueryType: queryType,
		LogAttrStatus:    status,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// IsCancellationError reports whether err was caused by a canceled context.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError reports whether err was caused by an exceeded context deadline.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
