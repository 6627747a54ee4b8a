// Package prometheus renders sessiongate metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [sessiongate.Engine] and exposes an
// [http.Handler] that renders all counters and histograms. Counter names are
// prefixed sessiongate_*_total; the single histogram is
// sessiongate_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
