/*
Package forkjoin provides a work-stealing pool for fine-grained, independent
tasks.

Every worker owns a deque. InvokeAll deals the submitted tasks round-robin
over the deques and blocks until all of them, plus anything they fork, have
finished. A worker takes its own work from the bottom of its deque and, when
that runs dry, steals from the top of a randomly chosen peer's deque, so load
balances itself without the caller sizing chunks.

Basic usage:

	pool := forkjoin.New(0) // GOMAXPROCS workers
	defer pool.Close()

	tasks := make([]forkjoin.Task, 0, n)
	for i := 0; i < n; i++ {
		i := i
		tasks = append(tasks, forkjoin.TaskFunc(func(c *forkjoin.Ctx) error {
			out[i] = work(i) // each task owns out[i]
			return nil
		}))
	}
	if err := pool.InvokeAll(ctx, tasks); err != nil {
		return err
	}

Recursive decomposition:

A task may split itself and Fork the halves instead of computing directly.
Forked tasks join the caller's batch; there is no per-task join, so the task
graph stays a fan-out with a single barrier at InvokeAll.

	var split forkjoin.TaskFunc
	split = func(c *forkjoin.Ctx) error {
		...
		c.Fork(left, right)
		return nil
	}

Failure:

The first task error (or recovered panic, wrapped in errors.ErrTaskPanic)
cancels the batch: tasks not yet started are skipped, running ones finish,
and InvokeAll returns that error. Tasks that loop for long should check
c.Context().

Lifecycle:

Created → Accepting → Draining → Terminated, as in the workerpool package.
Shutdown lets in-flight InvokeAll calls finish; ShutdownNow cancels them.
Both are idempotent.
*/
package forkjoin
