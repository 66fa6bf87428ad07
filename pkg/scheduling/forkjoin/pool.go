package forkjoin

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/matflow/pkg/common/validation"
	"github.com/vnykmshr/matflow/pkg/metrics"
	"github.com/vnykmshr/matflow/pkg/scheduling/lifecycle"
)

// Task is a unit of work run by the pool. Compute may fork further tasks
// through c; the batch they belong to is joined as a whole by InvokeAll.
type Task interface {
	Compute(c *Ctx) error
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func(c *Ctx) error

// Compute implements Task.
func (f TaskFunc) Compute(c *Ctx) error {
	return f(c)
}

// Config holds configuration for a fork/join pool.
type Config struct {
	// Parallelism is the number of workers. Zero means runtime.GOMAXPROCS(0).
	Parallelism int

	// Name labels the pool's metrics. Defaults to "forkjoin".
	Name string

	// Metrics, when non-nil, receives task, steal and batch counters.
	Metrics *metrics.Registry

	// PanicHandler is notified when a task panics. The batch fails
	// regardless, with an error wrapping errors.ErrTaskPanic.
	PanicHandler func(task Task, recovered interface{})
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validation.ValidateNonNegative("forkjoin", "Parallelism", c.Parallelism)
}

// Pool is a work-stealing task pool. Each worker owns a deque: it pops its
// own work LIFO and, when empty, steals FIFO from a randomly chosen peer.
//
// Lifecycle follows Created → Accepting → Draining → Terminated, like the
// worker pool. Shutdown waits for in-flight InvokeAll calls before stopping
// the workers.
type Pool struct {
	config  Config
	workers []*worker

	// wake carries at most one token per worker; quit closes on termination
	wake chan struct{}
	quit chan struct{}
	done chan struct{}

	// ctx is canceled by ShutdownNow; batch contexts are tied to it
	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.RWMutex
	state        lifecycle.Tracker
	active       sync.WaitGroup
	shutdownOnce sync.Once
	abortOnce    sync.Once
	workerWg     sync.WaitGroup

	next     atomic.Uint64
	steals   atomic.Int64
	executed atomic.Int64
	failed   atomic.Int64
	skipped  atomic.Int64

	mExecuted prometheus.Counter
	mFailed   prometheus.Counter
	mDropped  prometheus.Counter
	mSteals   prometheus.Counter
}

// New creates a pool with the given parallelism (0 = GOMAXPROCS).
// It panics on a negative value; use NewWithConfig for an error instead.
func New(parallelism int) *Pool {
	p, err := NewWithConfig(Config{Parallelism: parallelism})
	if err != nil {
		panic(err)
	}
	return p
}

// NewWithConfig creates and starts a pool.
func NewWithConfig(config Config) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Parallelism == 0 {
		config.Parallelism = runtime.GOMAXPROCS(0)
	}
	if config.Name == "" {
		config.Name = "forkjoin"
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		config: config,
		wake:   make(chan struct{}, config.Parallelism),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}

	if m := config.Metrics; m != nil {
		p.mExecuted = m.TasksExecuted.WithLabelValues(config.Name)
		p.mFailed = m.TasksFailed.WithLabelValues(config.Name)
		p.mDropped = m.TasksDropped.WithLabelValues(config.Name)
		p.mSteals = m.ForkJoinSteals.WithLabelValues(config.Name)
	}

	p.workers = make([]*worker, config.Parallelism)
	for i := range p.workers {
		p.workers[i] = &worker{id: i, pool: p}
	}
	for _, w := range p.workers {
		p.workerWg.Add(1)
		go w.run()
	}
	p.state.Advance(lifecycle.Accepting)

	return p, nil
}

// Parallelism returns the number of workers.
func (p *Pool) Parallelism() int {
	return len(p.workers)
}

// State returns the current lifecycle state.
func (p *Pool) State() lifecycle.State {
	return p.state.Load()
}

// Steals returns how many tasks were taken from another worker's deque.
func (p *Pool) Steals() int64 {
	return p.steals.Load()
}

// Executed returns how many tasks ran to completion (with or without error).
func (p *Pool) Executed() int64 {
	return p.executed.Load()
}

// Failed returns how many tasks returned an error or panicked.
func (p *Pool) Failed() int64 {
	return p.failed.Load()
}

// Skipped returns how many queued tasks were discarded because their batch
// had already failed or been canceled.
func (p *Pool) Skipped() int64 {
	return p.skipped.Load()
}

// signal wakes up to n parked workers.
func (p *Pool) signal(n int) {
	for i := 0; i < n; i++ {
		select {
		case p.wake <- struct{}{}:
		default:
			// Buffer full: enough wake-ups are already pending
			return
		}
	}
}

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}
