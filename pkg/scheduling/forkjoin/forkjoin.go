package forkjoin

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime/debug"
	"sync"
	"sync/atomic"

	mfcontext "github.com/vnykmshr/matflow/pkg/common/context"
	mferrors "github.com/vnykmshr/matflow/pkg/common/errors"
	"github.com/vnykmshr/matflow/pkg/scheduling/lifecycle"
)

// Ctx is handed to a running task. It exposes the batch context and lets
// the task fork subtasks onto the executing worker's deque.
type Ctx struct {
	w *worker
	b *batch
}

// Context returns the batch context. It is canceled once any task in the
// batch fails, the InvokeAll caller's context ends, or the pool is shut
// down with ShutdownNow.
func (c *Ctx) Context() context.Context {
	return c.b.ctx
}

// WorkerID identifies the worker running the task.
func (c *Ctx) WorkerID() int {
	return c.w.id
}

// Fork schedules tasks as part of the current batch. They are pushed onto
// the current worker's deque, where idle peers may steal them. Fork does
// not wait; the batch as a whole is joined by InvokeAll. Nil tasks are
// ignored.
func (c *Ctx) Fork(tasks ...Task) {
	jobs := make([]job, 0, len(tasks))
	for _, t := range tasks {
		if t != nil {
			jobs = append(jobs, job{task: t, b: c.b})
		}
	}
	if len(jobs) == 0 {
		return
	}
	// The forking task has not finished yet, so pending cannot reach zero
	// before these are counted.
	c.b.pending.Add(int64(len(jobs)))
	c.w.local.push(jobs...)
	c.w.pool.signal(len(jobs))
}

// batch is one InvokeAll call: the submitted tasks plus everything they fork.
type batch struct {
	ctx     context.Context
	cancel  context.CancelFunc
	pending atomic.Int64
	skipped atomic.Int64
	done    chan struct{}

	errOnce sync.Once
	err     error
}

func (b *batch) fail(err error) {
	b.errOnce.Do(func() {
		b.err = err
		b.cancel()
	})
}

func (b *batch) finish() {
	if b.pending.Add(-1) == 0 {
		close(b.done)
	}
}

type job struct {
	task Task
	b    *batch
}

// deque is a mutex-guarded double-ended queue. The owner works at the
// bottom (end of the slice), thieves take from the top.
type deque struct {
	mu    sync.Mutex
	items []job
}

func (d *deque) push(jobs ...job) {
	d.mu.Lock()
	d.items = append(d.items, jobs...)
	d.mu.Unlock()
}

func (d *deque) pop() (job, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	if n == 0 {
		return job{}, false
	}
	j := d.items[n-1]
	d.items[n-1] = job{}
	d.items = d.items[:n-1]
	return j, true
}

func (d *deque) steal() (job, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return job{}, false
	}
	j := d.items[0]
	d.items[0] = job{}
	d.items = d.items[1:]
	if len(d.items) == 0 {
		d.items = nil
	}
	return j, true
}

type worker struct {
	id    int
	pool  *Pool
	local deque
}

func (w *worker) run() {
	defer w.pool.workerWg.Done()

	for {
		if j, ok := w.next(); ok {
			w.execute(j)
			continue
		}
		select {
		case <-w.pool.wake:
		case <-w.pool.quit:
			// quit closes only after every batch has finished, so all
			// deques are empty here
			return
		}
	}
}

func (w *worker) next() (job, bool) {
	if j, ok := w.local.pop(); ok {
		return j, true
	}
	return w.steal()
}

func (w *worker) steal() (job, bool) {
	peers := w.pool.workers
	n := len(peers)
	if n < 2 {
		return job{}, false
	}
	start := rand.IntN(n)
	for i := 0; i < n; i++ {
		victim := peers[(start+i)%n]
		if victim == w {
			continue
		}
		if j, ok := victim.local.steal(); ok {
			w.pool.steals.Add(1)
			inc(w.pool.mSteals)
			return j, true
		}
	}
	return job{}, false
}

func (w *worker) execute(j job) {
	p := w.pool
	b := j.b
	defer b.finish()

	if mfcontext.IsCanceled(b.ctx) {
		b.skipped.Add(1)
		p.skipped.Add(1)
		inc(p.mDropped)
		return
	}

	c := Ctx{w: w, b: b}
	err := w.safeCompute(&c, j.task)
	p.executed.Add(1)
	inc(p.mExecuted)
	if err != nil {
		p.failed.Add(1)
		inc(p.mFailed)
		b.fail(err)
	}
}

func (w *worker) safeCompute(c *Ctx, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if w.pool.config.PanicHandler != nil {
				w.pool.config.PanicHandler(task, r)
			}
			err = fmt.Errorf("forkjoin: %w: %v\nStack trace:\n%s", mferrors.ErrTaskPanic, r, debug.Stack())
		}
	}()
	return task.Compute(c)
}

// Invoke runs a single task (and everything it forks) and waits for it.
func (p *Pool) Invoke(ctx context.Context, task Task) error {
	return p.InvokeAll(ctx, []Task{task})
}

// InvokeAll schedules tasks across the workers' deques and blocks until
// every one of them, and every task they fork, has finished. The tasks are
// independent: no ordering among them is guaranteed.
//
// If any task fails, the batch context is canceled, tasks that have not
// started are skipped, running ones finish, and the first error is
// returned. If ctx ends or the pool is shut down with ShutdownNow before
// all tasks ran, an error wrapping errors.ErrCanceled or errors.ErrTimeout
// is returned.
func (p *Pool) InvokeAll(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	for i, t := range tasks {
		if t == nil {
			return fmt.Errorf("forkjoin: task %d cannot be nil", i)
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.RLock()
	if !p.state.Accepting() {
		p.mu.RUnlock()
		return fmt.Errorf("forkjoin: cannot invoke tasks: %w", mferrors.ErrClosed)
	}
	p.active.Add(1)
	p.mu.RUnlock()
	defer p.active.Done()

	bctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.ctx, cancel)
	defer stop()

	b := &batch{ctx: bctx, cancel: cancel, done: make(chan struct{})}
	b.pending.Store(int64(len(tasks)))

	// Deal tasks round-robin, starting at a rotating worker so consecutive
	// small batches don't all land on worker 0.
	n := len(p.workers)
	start := int(p.next.Add(1) % uint64(n))
	buckets := make([][]job, n)
	for i, t := range tasks {
		idx := (start + i) % n
		buckets[idx] = append(buckets[idx], job{task: t, b: b})
	}
	for i, bucket := range buckets {
		if len(bucket) > 0 {
			p.workers[i].local.push(bucket...)
		}
	}
	p.signal(len(tasks))

	<-b.done

	switch {
	case b.err != nil:
		p.recordBatch("failed")
		return b.err
	case b.skipped.Load() > 0:
		p.recordBatch("canceled")
		if err := mfcontext.Cause(ctx, "forkjoin: invoke all"); err != nil {
			return err
		}
		return fmt.Errorf("forkjoin: invoke all: pool shut down: %w", mferrors.ErrCanceled)
	default:
		p.recordBatch("ok")
		return nil
	}
}

func (p *Pool) recordBatch(outcome string) {
	if m := p.config.Metrics; m != nil {
		m.ForkJoinBatches.WithLabelValues(p.config.Name, outcome).Inc()
	}
}

// Shutdown stops accepting new batches. In-flight InvokeAll calls complete
// normally; the returned channel closes once the workers have exited.
// Safe to call any number of times.
func (p *Pool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.state.Advance(lifecycle.Draining)
		p.mu.Unlock()

		go func() {
			p.active.Wait()
			close(p.quit)
			p.workerWg.Wait()
			p.cancel()
			p.state.Advance(lifecycle.Terminated)
			close(p.done)
		}()
	})
	return p.done
}

// ShutdownNow is like Shutdown but also cancels every in-flight batch, so
// unstarted tasks are skipped and the pending InvokeAll calls return
// ErrCanceled.
func (p *Pool) ShutdownNow() <-chan struct{} {
	p.abortOnce.Do(p.cancel)
	return p.Shutdown()
}

// AwaitTermination blocks until the pool is Terminated or ctx ends.
func (p *Pool) AwaitTermination(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return mfcontext.Cause(ctx, "forkjoin: await termination")
	}
}

// Close shuts the pool down and waits for termination.
func (p *Pool) Close() error {
	<-p.Shutdown()
	return nil
}
