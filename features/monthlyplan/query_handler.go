package monthlyplan

import (
	"context"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
	"github.com/AntonStoeckl/tour-catalog-go/features/internal/shell"
)

// Aggregator defines the interface needed by the QueryHandler, catalog.TourRepository satisfies it.
type Aggregator interface {
	Aggregate(ctx context.Context, pipeline catalog.Pipeline) (catalog.Documents, error)
}

const (
	queryType = "MonthlyPlan"
)

// QueryHandler runs the monthly plan aggregation for one year and projects its result.
type QueryHandler struct {
	aggregator Aggregator
	observers  shell.Observers
}

// NewQueryHandler creates a new QueryHandler with the provided Aggregator dependency and options.
func NewQueryHandler(aggregator Aggregator, opts ...Option) (QueryHandler, error) {
	h := QueryHandler{
		aggregator: aggregator,
	}

	for _, opt := range opts {
		if err := opt(&h); err != nil {
			return QueryHandler{}, err
		}
	}

	return h, nil
}

// Handle executes the query processing workflow: Validate -> Aggregate -> Project.
func (h QueryHandler) Handle(ctx context.Context, query Query) (MonthlyPlan, error) {
	ctx, run := shell.StartQuery(ctx, h.observers, queryType)

	if err := query.Validate(); err != nil {
		run.Failed(err)
		return MonthlyPlan{}, err
	}

	docs, err := h.aggregator.Aggregate(ctx, query.BuildPipeline())
	if err != nil {
		run.Failed(err)
		return MonthlyPlan{}, err
	}

	result := Project(docs, query)
	run.Succeeded(len(result.Months))

	return result, nil
}

/*** Query Handler Options ***/

// Option defines a functional option for configuring QueryHandler.
type Option func(*QueryHandler) error

// WithMetrics sets the metrics collector for the QueryHandler.
func WithMetrics(collector catalog.MetricsCollector) Option {
	return func(h *QueryHandler) error {
		h.observers.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the QueryHandler.
func WithTracing(collector catalog.TracingCollector) Option {
	return func(h *QueryHandler) error {
		h.observers.Tracing = collector
		return nil
	}
}

// WithContextualLogging sets the contextual logger for the QueryHandler.
func WithContextualLogging(logger catalog.ContextualLogger) Option {
	return func(h *QueryHandler) error {
		h.observers.ContextualLogger = logger
		return nil
	}
}

// WithLogging sets the basic logger for the QueryHandler.
func WithLogging(logger catalog.Logger) Option {
	return func(h *QueryHandler) error {
		h.observers.Logger = logger
		return nil
	}
}
