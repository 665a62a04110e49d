package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"blogcms/internal/config"
)

// keepGlobals restores the global providers once the test ends.
func keepGlobals(t *testing.T) {
	t.Helper()
	tp, mp := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
	})
}

func TestSetup_DisabledKeepsGlobals(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false}, "testing")

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestInstall_GlobalProvidersReceiveSignals(t *testing.T) {
	keepGlobals(t)
	ctx := context.Background()

	res, err := newResource("blogcms-test", "testing")
	require.NoError(t, err)
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()

	shutdown := install(res, sdktrace.WithSpanProcessor(spans), reader)

	_, span := otel.Tracer("blogcms/test").Start(ctx, "store.category.all")
	span.End()
	counter, err := otel.Meter("blogcms/test").Int64Counter("blog.store.query.count")
	require.NoError(t, err)
	counter.Add(ctx, 2)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "store.category.all", ended[0].Name())
	assert.Contains(t, ended[0].Resource().Attributes(), attribute.String("service.name", "blogcms-test"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	assert.NoError(t, shutdown(ctx))
}
