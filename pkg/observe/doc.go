// Package observe provides the OpenTelemetry wiring for the pipeline:
// per-phase duration histograms tagged with the aggregation round, and
// tracer-provider setup for the process root.
package observe
