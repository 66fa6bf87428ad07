package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	mfcontext "github.com/vnykmshr/matflow/pkg/common/context"
	mferrors "github.com/vnykmshr/matflow/pkg/common/errors"
	"github.com/vnykmshr/matflow/pkg/scheduling/lifecycle"
)

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
// Use SubmitWithContext to provide a custom context.
func (p *workerPool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithTimeout submits a task with a timeout for queuing.
func (p *workerPool) SubmitWithTimeout(task Task, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.submit(ctx, context.Background(), task)
}

// SubmitWithContext adds a task to the pool for execution with the given context.
// The context is passed to the task's Execute method, enabling timeout and
// cancellation propagation. If the pool has a TaskTimeout configured, the
// effective timeout will be the minimum of the context deadline and TaskTimeout.
func (p *workerPool) SubmitWithContext(ctx context.Context, task Task) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return p.submit(ctx, ctx, task)
}

// submit queues task, giving up when queueCtx ends. taskCtx becomes the
// parent of the context the task runs with.
func (p *workerPool) submit(queueCtx, taskCtx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("workerpool: task cannot be nil")
	}

	p.mu.RLock()
	if !p.state.Accepting() {
		p.mu.RUnlock()
		return fmt.Errorf("workerpool: cannot submit task: %w", mferrors.ErrClosed)
	}
	p.submitters.Add(1)
	p.mu.RUnlock()
	defer p.submitters.Done()

	// Check if context is already canceled before attempting to queue
	// This ensures deterministic behavior for pre-canceled contexts
	if err := mfcontext.Cause(queueCtx, "workerpool: cannot submit task"); err != nil {
		return err
	}

	qt := queuedTask{
		task:     task,
		ctx:      taskCtx,
		enqueued: time.Now(),
	}

	select {
	case p.taskQueue <- qt:
		p.totalSubmitted.Add(1)
		return nil
	case <-p.shutdownCh:
		return fmt.Errorf("workerpool: cannot submit task: %w", mferrors.ErrClosed)
	case <-queueCtx.Done():
		return mfcontext.Cause(queueCtx, "workerpool: cannot submit task")
	}
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *workerPool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.state.Advance(lifecycle.Draining)
		p.mu.Unlock()

		// Wake submitters blocked on a full queue
		close(p.shutdownCh)

		go func() {
			// No sender can be mid-send once submitters drain, so closing the
			// queue is safe; workers exit after consuming what is left.
			p.submitters.Wait()
			close(p.taskQueue)
			p.workerWg.Wait()
			p.cancel()
			p.state.Advance(lifecycle.Terminated)
			close(p.done)
		}()
	})

	return p.done
}

// ShutdownNow cancels running tasks and drops queued ones.
func (p *workerPool) ShutdownNow() <-chan struct{} {
	p.abortOnce.Do(func() {
		p.aborted.Store(true)
		p.cancel()
	})
	return p.Shutdown()
}

// ShutdownWithTimeout shuts down gracefully, escalating to ShutdownNow after timeout.
func (p *workerPool) ShutdownWithTimeout(timeout time.Duration) <-chan struct{} {
	done := p.Shutdown()

	go func() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
			p.ShutdownNow()
		}
	}()

	return done
}

// AwaitTermination blocks until the pool terminates or ctx ends.
func (p *workerPool) AwaitTermination(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return mfcontext.Cause(ctx, "workerpool: await termination")
	}
}

// State returns the current lifecycle state.
func (p *workerPool) State() lifecycle.State {
	return p.state.Load()
}

// Err returns the first task error observed by the pool.
func (p *workerPool) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.firstErr
}

func (p *workerPool) recordErr(err error) {
	p.errMu.Lock()
	if p.firstErr == nil {
		p.firstErr = err
	}
	p.errMu.Unlock()
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *workerPool) QueueSize() int {
	return len(p.taskQueue)
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *workerPool) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

// TotalSubmitted returns the total number of tasks accepted by the pool.
func (p *workerPool) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the total number of tasks that finished running.
func (p *workerPool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// TotalFailed returns the number of tasks that returned an error or panicked.
func (p *workerPool) TotalFailed() int64 {
	return p.totalFailed.Load()
}

// TotalDropped returns the number of accepted tasks discarded without running.
func (p *workerPool) TotalDropped() int64 {
	return p.totalDropped.Load()
}

// run is the main loop for a worker.
func (w *worker) run() {
	defer w.pool.workerWg.Done()

	if w.pool.config.OnWorkerStart != nil {
		w.pool.config.OnWorkerStart(w.id)
	}
	if w.pool.config.OnWorkerStop != nil {
		defer w.pool.config.OnWorkerStop(w.id)
	}

	for qt := range w.pool.taskQueue {
		w.executeTask(qt)
	}
}

// executeTask executes a single task, or drops it if the pool was aborted
// or the submitter gave up in the meantime.
func (w *worker) executeTask(qt queuedTask) {
	p := w.pool
	start := time.Now()
	result := Result{
		Task:      qt.task,
		QueueWait: start.Sub(qt.enqueued),
		WorkerID:  w.id,
	}

	if p.aborted.Load() || mfcontext.IsCanceled(qt.ctx) {
		result.Dropped = true
		result.Error = fmt.Errorf("workerpool: task dropped: %w", mferrors.ErrCanceled)
		p.totalDropped.Add(1)
		w.complete(result)
		return
	}

	p.activeWorkers.Add(1)
	defer p.activeWorkers.Add(-1)

	if p.config.OnTaskStart != nil {
		p.config.OnTaskStart(w.id, qt.task)
	}

	// Derive the task context from the submitter's context and the pool's
	// own, so ShutdownNow reaches running tasks.
	ctx, cancel := context.WithCancel(qt.ctx)
	defer cancel()
	stop := context.AfterFunc(p.ctx, cancel)
	defer stop()

	// Apply TaskTimeout if configured
	// The effective timeout is the minimum of the context deadline and TaskTimeout
	if p.config.TaskTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancelTimeout()
	}

	err := w.safeExecute(ctx, qt.task)
	result.Error = err
	result.Duration = time.Since(start)

	p.totalCompleted.Add(1)
	if err != nil {
		p.totalFailed.Add(1)
		p.recordErr(err)
	}
	w.complete(result)
}

// safeExecute runs the task, converting a panic into an error.
func (w *worker) safeExecute(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if w.pool.config.PanicHandler != nil {
				w.pool.config.PanicHandler(task, r)
			}
			err = fmt.Errorf("workerpool: %w: %v\nStack trace:\n%s", mferrors.ErrTaskPanic, r, debug.Stack())
		}
	}()

	return task.Execute(ctx)
}

func (w *worker) complete(result Result) {
	if w.pool.config.OnTaskComplete != nil {
		w.pool.config.OnTaskComplete(w.id, result)
	}
}
