package telemetry

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOps(t *testing.T) {
	ctx := context.Background()
	sr := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	ops, err := NewOps("storefront/test", Providers{
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)),
		MeterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	})
	require.NoError(t, err)

	_, done := ops.Start(ctx, "cart.fetch")
	done(nil)
	_, done = ops.Start(ctx, "cart.add", attribute.String("product_id", "p1"))
	done(errors.New("boom"))

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "cart.fetch", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.String("product_id", "p1"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "storefront.sync.operations", m.Name)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	results := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value("result")
		results[v.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"ok": 1, "error": 1}, results)
}

func TestOps_NoopDefaults(t *testing.T) {
	ops, err := NewOps("storefront/test", Providers{})
	require.NoError(t, err)

	ctx, done := ops.Start(context.Background(), "noop")
	assert.NotNil(t, ctx)
	done(nil)
}
