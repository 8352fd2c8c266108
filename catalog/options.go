package catalog

import (
	"errors"
	"time"
)

// ErrNilClock is returned by WithClock for a nil clock.
var ErrNilClock = errors.New("clock must not be nil")

// Option defines a functional option for configuring TourRepository.
type Option func(*TourRepository) error

// WithHooks replaces the DefaultHooks with the given registry.
// Use DefaultHooks(logger).OnPreQuery(...) to extend the standard hooks instead of replacing them.
// Secret tours stay excluded from reads and aggregations either way.
func WithHooks(hooks Hooks) Option {
	return func(r *TourRepository) error {
		r.hooks = hooks
		r.hooksConfigured = true
		return nil
	}
}

// WithClock sets the time source for createdAt defaults and query timing.
func WithClock(clock func() time.Time) Option {
	return func(r *TourRepository) error {
		if clock == nil {
			return ErrNilClock
		}

		r.clock = clock

		return nil
	}
}

// WithLogger sets the logger for the TourRepository.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: query timings of the standard post-query hook
// Info level: persisted tours, completed operations
// Error level: failed operations and failed post hooks.
func WithLogger(logger Logger) Option {
	return func(r *TourRepository) error {
		r.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the TourRepository.
// It takes precedence over the Logger for the repository's own messages.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(r *TourRepository) error {
		r.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the TourRepository.
// It receives query/persist durations, result counts, and post hook faults.
func WithMetrics(collector MetricsCollector) Option {
	return func(r *TourRepository) error {
		r.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the TourRepository.
// One span is started per repository operation.
func WithTracing(collector TracingCollector) Option {
	return func(r *TourRepository) error {
		r.tracingCollector = collector
		return nil
	}
}
