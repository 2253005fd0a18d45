// Package prometheus exposes goCare client metrics to Prometheus.
//
// [Exporter] is a prometheus.Collector: register it with any registry, or mount
// [Exporter.Handler] to serve it on its own. Counter names are gocare_*_total and the
// single histogram is gocare_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register with the global Prometheus registry on its own.
//   - Mutate client state.
package prometheus
