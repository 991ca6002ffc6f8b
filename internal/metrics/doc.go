// Package metrics provides run metrics for promptpack.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default; NewPrometheusRecorder activates Prometheus collectors, which the
// CLI writes to a textfile with --metrics-file.
package metrics
