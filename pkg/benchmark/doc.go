// Package benchmark times the multiplication strategies against each other.
//
// A run fills two N×N matrices with random integers in [0, MaxValue] from a
// single seeded source, then multiplies them with Sequential, Fork/Join pool
// and Thread Pool, in that order, on the same operands. With Verify set,
// every parallel result is compared with the sequential one.
package benchmark
