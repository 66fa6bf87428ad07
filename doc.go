/*
Package matflow compares ways of multiplying dense matrices concurrently.

Matrices (pkg/matrix):
  - Matrix: row-major float64 storage with shape checks
  - Factory: seeded random operands

Multiplication (pkg/multiply):
  - Sequential: the i, j, k reference loop
  - ForkJoin: independent cell, row or tile tasks on a work-stealing pool
  - WorkerPool: one task per row on a fixed-size pool

Scheduling (pkg/scheduling):
  - forkjoin: work-stealing pool with per-worker deques
  - workerpool: fixed workers over a bounded queue
  - lifecycle: the Created, Accepting, Draining, Terminated states both pools share
  - scheduler: cron-driven repetition

Benchmarking (pkg/benchmark) times the three strategies on the same operands
and verifies they agree. Prometheus instrumentation lives in pkg/metrics and
the matbench command ties everything together.

Example usage:

	import (
		"github.com/vnykmshr/matflow/pkg/matrix"
		"github.com/vnykmshr/matflow/pkg/multiply"
	)

	f, _ := matrix.NewFactory(42, 100)
	a, _ := f.Square(500)
	b, _ := f.Square(500)

	fj, _ := multiply.NewForkJoin(multiply.ForkJoinConfig{Granularity: multiply.Row})
	defer fj.Close()
	c, err := fj.Multiply(ctx, a, b)
*/
package matflow
