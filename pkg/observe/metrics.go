package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/provelabs/witnessgen/pkg/core"
)

// meterName is the instrumentation scope name for pipeline metrics.
const meterName = "github.com/provelabs/witnessgen"

// Metrics records per-phase witness-generation durations. Instruments are
// created once; with no MeterProvider configured the OTel API hands back
// noop instruments and recording is a pass-through.
//
// Instruments (all Float64Histogram, seconds, attribute aggregation_round):
//   - witnessgen.blob_fetch_time: fetching job inputs from the blob store
//   - witnessgen.prepare_job_time: key resolution and parameter computation
//   - witnessgen.witness_generation_time: the stage computation itself
//   - witnessgen.blob_save_time: persisting output artifacts
type Metrics struct {
	blobFetch metric.Float64Histogram
	prepare   metric.Float64Histogram
	compute   metric.Float64Histogram
	blobSave  metric.Float64Histogram
}

// NewMetrics creates a Metrics using the global MeterProvider.
func NewMetrics() *Metrics {
	return NewMetricsWithMeter(otel.Meter(meterName))
}

// NewMetricsWithMeter creates a Metrics using the provided meter. This
// variant allows injecting a specific MeterProvider for testing.
func NewMetricsWithMeter(meter metric.Meter) *Metrics {
	m := &Metrics{}
	var err error
	m.blobFetch, err = meter.Float64Histogram(
		"witnessgen.blob_fetch_time",
		metric.WithDescription("Time spent fetching job input blobs"),
		metric.WithUnit("s"),
	)
	_ = err // noop fallback guaranteed by the OTel API contract
	m.prepare, err = meter.Float64Histogram(
		"witnessgen.prepare_job_time",
		metric.WithDescription("Time spent resolving keys and computing stage parameters"),
		metric.WithUnit("s"),
	)
	_ = err
	m.compute, err = meter.Float64Histogram(
		"witnessgen.witness_generation_time",
		metric.WithDescription("Time spent in the witness computation"),
		metric.WithUnit("s"),
	)
	_ = err
	m.blobSave, err = meter.Float64Histogram(
		"witnessgen.blob_save_time",
		metric.WithDescription("Time spent persisting output artifacts"),
		metric.WithUnit("s"),
	)
	_ = err
	return m
}

func roundAttr(round core.AggregationRound) metric.RecordOption {
	return metric.WithAttributes(attribute.String("aggregation_round", round.String()))
}

// RecordBlobFetch records the fetch-phase duration for a round.
func (m *Metrics) RecordBlobFetch(ctx context.Context, round core.AggregationRound, d time.Duration) {
	m.blobFetch.Record(ctx, d.Seconds(), roundAttr(round))
}

// RecordPrepare records the preparation-phase duration for a round.
func (m *Metrics) RecordPrepare(ctx context.Context, round core.AggregationRound, d time.Duration) {
	m.prepare.Record(ctx, d.Seconds(), roundAttr(round))
}

// RecordCompute records the compute-phase duration for a round.
func (m *Metrics) RecordCompute(ctx context.Context, round core.AggregationRound, d time.Duration) {
	m.compute.Record(ctx, d.Seconds(), roundAttr(round))
}

// RecordBlobSave records the save-phase duration for a round.
func (m *Metrics) RecordBlobSave(ctx context.Context, round core.AggregationRound, d time.Duration) {
	m.blobSave.Record(ctx, d.Seconds(), roundAttr(round))
}
