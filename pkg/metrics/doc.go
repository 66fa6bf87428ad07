// Package metrics provides Prometheus instrumentation for matflow components.
//
// The registry covers three areas:
//   - Tasks: submitted, executed, completed, failed and dropped counts plus
//     execution and queue-wait histograms, labelled by pool name
//   - Pools: worker pool size, active workers and queue depth; fork/join
//     steals and batch outcomes
//   - Benchmark: per-strategy run counts and wall-clock durations
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation, which is what the tests do:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewRegistry(reg)
//	pool := workerpool.NewWithConfigAndMetrics(cfg, "rows", m)
//
// Expose whichever registerer was used over HTTP with promhttp:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics
