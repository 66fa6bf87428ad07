/*
Package scheduling groups the execution primitives used by the multipliers.

  - forkjoin: work-stealing pool; tasks fork subtasks and a batch is joined once
  - workerpool: fixed set of long-lived workers fed from a bounded queue
  - lifecycle: state tracking shared by both pools
  - scheduler: repeats a job on a cron expression

Both pools move through Created → Accepting → Draining → Terminated. Work is
accepted only while Accepting. Shutdown drains accepted work; ShutdownNow
cancels running tasks and drops queued ones. Both are idempotent and return
a channel that closes on Terminated:

	pool := workerpool.New(4, 100)
	for _, t := range tasks {
		if err := pool.Submit(t); err != nil {
			break
		}
	}
	<-pool.Shutdown()
	if err := pool.Err(); err != nil {
		return err
	}

The fork/join pool is joined per batch instead:

	fj := forkjoin.New(0)
	defer fj.Close()
	err := fj.InvokeAll(ctx, tasks)
*/
package scheduling
