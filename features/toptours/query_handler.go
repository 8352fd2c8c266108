package toptours

import (
	"context"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
	"github.com/AntonStoeckl/tour-catalog-go/features/internal/shell"
)

// Finder defines the interface needed by the QueryHandler, catalog.TourRepository satisfies it.
type Finder interface {
	Find(ctx context.Context, params catalog.Params) (catalog.Documents, error)
}

const (
	queryType = "TopTours"
)

// QueryHandler runs the aliased tour search and projects its result.
type QueryHandler struct {
	finder    Finder
	observers shell.Observers
}

// NewQueryHandler creates a new QueryHandler with the provided Finder dependency and options.
func NewQueryHandler(finder Finder, opts ...Option) (QueryHandler, error) {
	h := QueryHandler{
		finder: finder,
	}

	for _, opt := range opts {
		if err := opt(&h); err != nil {
			return QueryHandler{}, err
		}
	}

	return h, nil
}

// Handle executes the query processing workflow: Alias -> Find -> Project.
func (h QueryHandler) Handle(ctx context.Context, params catalog.Params) (TopTours, error) {
	ctx, run := shell.StartQuery(ctx, h.observers, queryType)

	docs, err := h.finder.Find(ctx, AliasParams(params))
	if err != nil {
		run.Failed(err)
		return TopTours{}, err
	}

	result := Project(docs)
	run.Succeeded(result.Count)

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
