// internal/common/observability/observability_test.go
package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := New("ecycle-test", reg)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	obs.RecordJobProcessed(ctx, "estimate-value", "completed")
	obs.RecordJobDuration(ctx, "estimate-value", 12*time.Millisecond, "completed")
	obs.RecordRequest(ctx, "/valuation/estimate", 200, 3*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "jobs_processed")
	assert.Contains(t, joined, "jobs_duration")
	assert.Contains(t, joined, "http_server_duration")
}

func TestObservability_StartSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs, err := New("ecycle-test", prometheus.NewRegistry(), sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)

	_, span := obs.StartSpan(context.Background(), "classify-item", attribute.String("task_type", "classify-item"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "classify-item", ended[0].Name())
}

func TestObservability_NilIsNoop(t *testing.T) {
	var obs *Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		obs.RecordJobProcessed(ctx, "x", "completed")
		obs.RecordJobDuration(ctx, "x", time.Second, "failed")
		obs.RecordRequest(ctx, "/", 500, time.Second)
		_, span := obs.StartSpan(ctx, "noop")
		span.End()
	})
	assert.NoError(t, obs.Shutdown(ctx))
}
