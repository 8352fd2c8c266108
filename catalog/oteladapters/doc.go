// Package oteladapters implements the observability interfaces of the catalog with OpenTelemetry.
//
//	repo, err := catalog.NewTourRepository(store,
//		catalog.WithContextualLogger(oteladapters.NewSlogBridgeLogger("tour-catalog", nil)),
//		catalog.WithMetrics(oteladapters.NewMetricsCollector(meterProvider.Meter("tour-catalog"))),
//		catalog.WithTracing(oteladapters.NewTracingCollector(tracerProvider.Tracer("tour-catalog"))),
//	)
//
// The collectors create their instruments lazily and are safe for concurrent use.
package oteladapters
