/*
Package multiply implements dense matrix multiplication under three
execution strategies that produce the same result.

# Strategies

Sequential is the i, j, k triple loop on the calling goroutine. It is the
reference the parallel strategies are checked against.

ForkJoin partitions the result into independent units and runs them on a
work-stealing forkjoin.Pool. The default unit is a single output cell;
Row and Tile granularities trade scheduling overhead for coarser tasks:

	fj, err := multiply.NewForkJoin(multiply.ForkJoinConfig{Granularity: multiply.Row})
	if err != nil {
		return err
	}
	defer fj.Close()
	c, err := fj.Multiply(ctx, a, b)

WorkerPool submits one task per output row to a fixed-size
workerpool.Pool, then shuts the pool down and waits for termination,
optionally bounded by a timeout.

# Guarantees

Every strategy checks shapes before starting any work and fails with
errors.ErrDimensionMismatch when cols(a) != rows(b). Each output cell is
written by exactly one unit of work, so the result needs no locking.
Cells are accumulated in the same order everywhere, so the parallel
strategies agree with Sequential exactly.

A failed or interrupted multiplication returns a nil matrix together with
an error; partial results are never returned. The first failing task
stops the rest of the multiplication in both parallel strategies.
Cancellation reports errors.ErrCanceled, an elapsed deadline
errors.ErrTimeout.
*/
package multiply
