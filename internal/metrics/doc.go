// Package metrics provides the observability hooks for CMS requests and sitemap runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	f := fetch.New(fetch.WithRecorder(metrics.NoopRecorder{}))
//
// The serve and daemon commands install a PrometheusRecorder and expose it on
// /metrics. One-shot sitemap runs can dump the same registry to a
// node_exporter textfile with WriteTextfile.
package metrics
