// Package metrics provides build observability for ginger.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so callers never nil-check before recording:
//
//	b := site.NewBuilder(settings, site.WithRecorder(metrics.NoopRecorder{}))
//
// PrometheusRecorder registers its collectors on a caller supplied registry;
// HTTPHandler exposes that registry for scraping while watch mode runs.
//
// Metric names are prefixed with the "ginger" namespace:
//
//   - ginger_build_duration_seconds
//   - ginger_stage_duration_seconds{stage}
//   - ginger_build_outcomes_total{outcome}
//   - ginger_pages_rendered
package metrics
