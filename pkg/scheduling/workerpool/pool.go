package workerpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/matflow/pkg/common/validation"
	"github.com/vnykmshr/matflow/pkg/scheduling/lifecycle"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result represents the outcome of one accepted task.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error that occurred during task execution
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// QueueWait is how long the task waited between submission and pickup
	QueueWait time.Duration

	// WorkerID identifies which worker handled the task
	WorkerID int

	// Dropped is true when the task was discarded without running because
	// the pool was shut down with ShutdownNow or its submit context ended.
	Dropped bool
}

// Pool represents a fixed set of long-lived workers executing tasks concurrently.
//
// A pool moves through Created → Accepting → Draining → Terminated. Submit
// succeeds only while Accepting; Shutdown starts Draining; Terminated is
// reached once every accepted task has run or been dropped.
type Pool interface {
	// Submit adds a task to the pool for execution.
	// Returns an error if the pool is shut down or if the task cannot be queued.
	Submit(task Task) error

	// SubmitWithTimeout submits a task with a timeout for queuing.
	// If the task cannot be queued within the timeout, it returns an error.
	SubmitWithTimeout(task Task, timeout time.Duration) error

	// SubmitWithContext submits a task with a context for cancellation.
	// The context bounds the queuing operation and is also the parent of the
	// context the task executes with.
	SubmitWithContext(ctx context.Context, task Task) error

	// Shutdown stops accepting new tasks; queued tasks still run.
	// Returns a channel that closes when the pool reaches Terminated.
	// Safe to call any number of times.
	Shutdown() <-chan struct{}

	// ShutdownNow stops accepting tasks, cancels the context of running tasks
	// and drops queued ones. Safe to call any number of times, including
	// after Shutdown.
	ShutdownNow() <-chan struct{}

	// ShutdownWithTimeout shuts down the pool gracefully and escalates to
	// ShutdownNow if termination takes longer than timeout.
	ShutdownWithTimeout(timeout time.Duration) <-chan struct{}

	// AwaitTermination blocks until the pool is Terminated or ctx ends.
	// It does not initiate shutdown by itself.
	AwaitTermination(ctx context.Context) error

	// State returns the current lifecycle state.
	State() lifecycle.State

	// Err returns the first error returned by (or panic raised in) any task.
	Err() error

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the current number of queued tasks waiting for execution.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks accepted by the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks that finished running.
	TotalCompleted() int64

	// TotalFailed returns the number of completed tasks that returned an error.
	TotalFailed() int64

	// TotalDropped returns the number of accepted tasks discarded without running.
	TotalDropped() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// QueueSize is the maximum number of tasks that can wait for a worker.
	// If 0, Submit hands a task directly to an idle worker and blocks until
	// one is free.
	QueueSize int

	// TaskTimeout is the default timeout for individual task execution.
	// Zero means no timeout.
	TaskTimeout time.Duration

	// PanicHandler is called when a task panics. The task's result still
	// carries an error wrapping ErrTaskPanic.
	PanicHandler func(task Task, recovered interface{})

	// OnWorkerStart is called when a worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(workerID int, task Task)

	// OnTaskComplete is called after a task completes (success or failure)
	// or is dropped.
	OnTaskComplete func(workerID int, result Result)
}

// DefaultConfig sizes the pool to the hardware parallelism with a
// synchronous hand-off queue.
func DefaultConfig() Config {
	return Config{
		WorkerCount: runtime.NumCPU(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidatePositive("workerpool", "WorkerCount", c.WorkerCount); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("workerpool", "QueueSize", c.QueueSize); err != nil {
		return err
	}
	return validation.ValidateNonNegativeDuration("workerpool", "TaskTimeout", c.TaskTimeout)
}

type queuedTask struct {
	task     Task
	ctx      context.Context
	enqueued time.Time
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config

	// Core pool state
	workers      []worker
	taskQueue    chan queuedTask
	shutdownCh   chan struct{}
	done         chan struct{}
	shutdownOnce sync.Once
	abortOnce    sync.Once

	// ctx is canceled by ShutdownNow; every running task context derives from it
	ctx     context.Context
	cancel  context.CancelFunc
	aborted atomic.Bool

	// mu orders admission against the transition to Draining
	mu         sync.RWMutex
	state      lifecycle.Tracker
	submitters sync.WaitGroup

	// State tracking
	activeWorkers  atomic.Int32
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64
	totalFailed    atomic.Int64
	totalDropped   atomic.Int64

	errMu    sync.Mutex
	firstErr error

	// Worker management
	workerWg sync.WaitGroup
}

// worker represents a single worker in the pool.
type worker struct {
	id   int
	pool *workerPool
}

// New creates a new worker pool with the specified number of workers and queue size.
// It panics on invalid arguments; use NewSafe to get an error instead.
func New(workerCount, queueSize int) Pool {
	return NewWithConfig(Config{
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	})
}

// NewSafe is like New but returns a validation error instead of panicking.
func NewSafe(workerCount, queueSize int) (Pool, error) {
	return NewWithConfigSafe(Config{
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	})
}

// NewWithConfig creates a new worker pool with the specified configuration.
// It panics on an invalid configuration.
func NewWithConfig(config Config) Pool {
	pool, err := NewWithConfigSafe(config)
	if err != nil {
		panic(err)
	}
	return pool
}

// NewWithConfigSafe creates a new worker pool, returning an error for an
// invalid configuration.
func NewWithConfigSafe(config Config) (Pool, error) {
	return newWorkerPool(config)
}

func newWorkerPool(config Config) (*workerPool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := &workerPool{
		config:     config,
		taskQueue:  make(chan queuedTask, config.QueueSize),
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}

	// Create and start workers
	pool.workers = make([]worker, config.WorkerCount)
	for i := 0; i < config.WorkerCount; i++ {
		pool.workers[i] = worker{id: i, pool: pool}
		pool.workerWg.Add(1)
		go pool.workers[i].run()
	}
	pool.state.Advance(lifecycle.Accepting)

	return pool, nil
}
