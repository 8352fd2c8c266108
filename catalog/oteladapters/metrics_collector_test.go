package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
	"github.com/AntonStoeckl/tour-catalog-go/catalog/oteladapters"
)

func givenMetricsCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics), "failed to collect metrics")

	return resourceMetrics
}

func findMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	require.Failf(t, "metric not found", "metric %s was not recorded", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration_RecordsSecondsIntoAHistogram(t *testing.T) {
	// arrange
	collector, reader := givenMetricsCollector()
	labels := map[string]string{catalog.LabelOperation: "find", catalog.LabelStatus: catalog.StatusSuccess}

	// act
	collector.RecordDuration(catalog.MetricQueryDuration, 150*time.Millisecond, labels)

	// assert
	m := findMetric(t, collect(t, reader), catalog.MetricQueryDuration)
	assert.Equal(t, "s", m.Unit)

	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.15, histogram.DataPoints[0].Sum, 0.001)

	expected := attribute.NewSet(
		attribute.String(catalog.LabelOperation, "find"),
		attribute.String(catalog.LabelStatus, catalog.StatusSuccess),
	)
	assert.True(t, histogram.DataPoints[0].Attributes.Equals(&expected))
}

func Test_MetricsCollector_IncrementCounter_SumsPerLabelSet(t *testing.T) {
	// arrange
	collector, reader := givenMetricsCollector()
	parseErrors := map[string]string{catalog.LabelOperation: "find", catalog.LabelErrorType: "query_parse"}
	conflicts := map[string]string{catalog.LabelOperation: "create", catalog.LabelErrorType: "uniqueness_conflict"}

	// act
	collector.IncrementCounter(catalog.MetricOperationErrors, parseErrors)
	collector.IncrementCounterContext(context.Background(), catalog.MetricOperationErrors, parseErrors)
	collector.IncrementCounter(catalog.MetricOperationErrors, conflicts)

	// assert
	m := findMetric(t, collect(t, reader), catalog.MetricOperationErrors)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2)

	values := make(map[string]int64)
	for _, dataPoint := range sum.DataPoints {
		errorType, _ := dataPoint.Attributes.Value(attribute.Key(catalog.LabelErrorType))
		values[errorType.AsString()] = dataPoint.Value
	}
	assert.Equal(t, map[string]int64{"query_parse": 2, "uniqueness_conflict": 1}, values)
}

func Test_MetricsCollector_RecordValue_KeepsTheLastValue(t *testing.T) {
	// arrange
	collector, reader := givenMetricsCollector()
	labels := map[string]string{catalog.LabelOperation: "find"}

	// act
	collector.RecordValue(catalog.MetricDocumentsReturned, 12, labels)
	collector.RecordValueContext(context.Background(), catalog.MetricDocumentsReturned, 3, labels)

	// assert
	m := findMetric(t, collect(t, reader), catalog.MetricDocumentsReturned)
	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 3.0, gauge.DataPoints[0].Value)
}

func Test_MetricsCollector_IsSafeForConcurrentUse(t *testing.T) {
	// arrange
	collector, reader := givenMetricsCollector()
	var wg sync.WaitGroup

	// act
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter(catalog.MetricHookFaults, map[string]string{catalog.LabelHook: "audit"})
			collector.RecordDuration(catalog.MetricPersistDuration, time.Millisecond, nil)
		}()
	}
	wg.Wait()

	// assert
	m := findMetric(t, collect(t, reader), catalog.MetricHookFaults)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(50), sum.DataPoints[0].Value)
}
