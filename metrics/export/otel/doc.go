// Package otel binds goCare client metrics to OpenTelemetry instruments.
//
// [NewExporter] registers one Int64ObservableCounter per client counter. The latency
// histogram is published as cumulative bucket gauges keyed by an le attribute plus a
// count gauge. A single callback reads [goCare.Client.MetricsSnapshot] on each
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate client state.
package otel
