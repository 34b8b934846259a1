package observe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/provelabs/witnessgen/pkg/core"
)

// With no MeterProvider configured every instrument is a noop; recording
// must be safe from any phase.
func TestMetrics_NoopRecording(t *testing.T) {
	m := NewMetrics()
	require.NotNil(t, m)

	ctx := context.Background()
	m.RecordBlobFetch(ctx, core.RoundLeafAggregation, 10*time.Millisecond)
	m.RecordPrepare(ctx, core.RoundLeafAggregation, time.Millisecond)
	m.RecordCompute(ctx, core.RoundLeafAggregation, time.Second)
	m.RecordBlobSave(ctx, core.RoundNodeAggregation, 5*time.Millisecond)
}

func TestMetrics_WithExplicitMeter(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	m := NewMetricsWithMeter(meter)
	require.NotNil(t, m)
	m.RecordCompute(context.Background(), core.RoundLeafAggregation, time.Millisecond)
}
