package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Example_customRegistry demonstrates recording into an isolated registry.
func Example_customRegistry() {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.BenchmarkRuns.WithLabelValues("Sequential", "ok").Inc()
	m.BenchmarkRuns.WithLabelValues("Sequential", "ok").Inc()
	m.BenchmarkLastDuration.WithLabelValues("Sequential").Set(0.25)

	fmt.Println(testutil.ToFloat64(m.BenchmarkRuns.WithLabelValues("Sequential", "ok")))
	fmt.Println(testutil.ToFloat64(m.BenchmarkLastDuration.WithLabelValues("Sequential")))

	// Output:
	// 2
	// 0.25
}
