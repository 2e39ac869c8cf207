// Package prometheus provides Prometheus collectors for credgate metrics.
//
// [NewPrometheusExporter] accepts a [credgate.Service] and exposes an [http.Handler]
// that renders all credgate counters and histograms in Prometheus text exposition format.
// Counter names are prefixed credgate_*_total; the single histogram is
// credgate_verify_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate service state.
package prometheus
