/*
Package workerpool provides a fixed-size pool of long-lived worker goroutines.

A worker pool manages a fixed number of workers that execute tasks
concurrently. Tasks queue until a worker is free. The pool is meant to be
filled, drained and discarded: the worker-pool multiplier creates one per
multiplication, submits one task per output row, shuts it down and waits.

Basic usage:

	pool := workerpool.New(runtime.NumCPU(), 64)

	for _, row := range rows {
		row := row
		if err := pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
			return compute(ctx, row)
		})); err != nil {
			<-pool.ShutdownNow()
			return err
		}
	}

	pool.Shutdown()
	if err := pool.AwaitTermination(ctx); err != nil {
		<-pool.ShutdownNow()
		return err
	}
	return pool.Err()

Lifecycle:

A pool moves through four states, reported by State():

	Created → Accepting → Draining → Terminated

Submit succeeds only while Accepting and returns an error wrapping
errors.ErrClosed afterwards. Shutdown moves the pool to Draining; queued
tasks still run and Terminated is reached once the last one finishes.
ShutdownNow also cancels the context of running tasks and drops queued
ones. Both are idempotent and return the same channel, closed on
Terminated.

Waiting:

AwaitTermination blocks until Terminated or until its context ends, in which
case it returns an error wrapping errors.ErrTimeout (deadline) or
errors.ErrCanceled. It never starts a shutdown itself, so callers decide
whether to ShutdownNow or keep waiting.

Errors and panics:

Task errors are counted and the first one is kept for Err(). A panicking task
is recovered and fails with an error wrapping errors.ErrTaskPanic that
carries the stack trace; Config.PanicHandler, if set, is notified as well.
Per-task outcomes, including dropped tasks, are delivered to
Config.OnTaskComplete.

Metrics:

NewWithConfigAndMetrics wraps the pool so every task outcome and the pool
gauges are recorded into a metrics.Registry under a pool name.

Thread Safety:

All pool operations are safe for concurrent use from multiple goroutines.
*/
package workerpool
