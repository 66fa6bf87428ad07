// Package benchmark holds scheduling overhead benchmarks for the fork/join
// and worker pools. It has no non-test code.
package benchmark
