package workerpool

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/matflow/pkg/metrics"
	"github.com/vnykmshr/matflow/pkg/scheduling/lifecycle"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates a new worker pool with metrics enabled.
func NewWithMetrics(workerCount int, name string) Pool {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := metrics.NewRegistry(prometheus.NewRegistry())

	return NewWithConfigAndMetrics(Config{
		WorkerCount: workerCount,
	}, name, registry)
}

// NewWithConfigAndMetrics creates a new worker pool with custom config and
// metrics recorded into registry under the given pool name. A nil registry
// returns the plain pool.
func NewWithConfigAndMetrics(config Config, name string, registry *metrics.Registry) Pool {
	if registry == nil {
		return NewWithConfig(config)
	}

	mp := &MetricsPool{
		name:     name,
		registry: registry,
	}

	// Chain the caller's completion hook behind the metrics hook
	userHook := config.OnTaskComplete
	config.OnTaskComplete = func(workerID int, result Result) {
		mp.observe(result)
		if userHook != nil {
			userHook(workerID, result)
		}
	}

	mp.pool = NewWithConfig(config)

	// Initialize metrics
	mp.updateMetrics()

	return mp
}

// observe records the outcome of one task.
func (mp *MetricsPool) observe(result Result) {
	if result.Dropped {
		mp.registry.TasksDropped.WithLabelValues(mp.name).Inc()
		return
	}

	mp.registry.TaskQueueWait.WithLabelValues(mp.name).Observe(result.QueueWait.Seconds())
	mp.registry.TaskExecutionDuration.WithLabelValues(mp.name).Observe(result.Duration.Seconds())
	mp.registry.TasksExecuted.WithLabelValues(mp.name).Inc()

	if result.Error != nil {
		mp.registry.TasksFailed.WithLabelValues(mp.name).Inc()
	} else {
		mp.registry.TasksCompleted.WithLabelValues(mp.name).Inc()
	}

	mp.updateMetrics()
}

// updateMetrics updates the current state metrics.
func (mp *MetricsPool) updateMetrics() {
	if mp.pool == nil {
		return
	}
	mp.registry.WorkerPoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Size()))
	mp.registry.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
	mp.registry.WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Submit adds a task to the pool for execution.
func (mp *MetricsPool) Submit(task Task) error {
	return mp.SubmitWithContext(context.Background(), task)
}

// SubmitWithTimeout submits a task with a timeout for queuing.
func (mp *MetricsPool) SubmitWithTimeout(task Task, timeout time.Duration) error {
	err := mp.pool.SubmitWithTimeout(task, timeout)
	mp.afterSubmit(err)
	return err
}

// SubmitWithContext submits a task with a context for cancellation.
func (mp *MetricsPool) SubmitWithContext(ctx context.Context, task Task) error {
	err := mp.pool.SubmitWithContext(ctx, task)
	mp.afterSubmit(err)
	return err
}

func (mp *MetricsPool) afterSubmit(err error) {
	if err == nil {
		mp.registry.TasksSubmitted.WithLabelValues(mp.name).Inc()
	}
	mp.updateMetrics()
}

// Shutdown initiates graceful shutdown of the pool.
func (mp *MetricsPool) Shutdown() <-chan struct{} {
	return mp.pool.Shutdown()
}

// ShutdownNow cancels running tasks and drops queued ones.
func (mp *MetricsPool) ShutdownNow() <-chan struct{} {
	return mp.pool.ShutdownNow()
}

// ShutdownWithTimeout shuts down the pool with a timeout.
func (mp *MetricsPool) ShutdownWithTimeout(timeout time.Duration) <-chan struct{} {
	return mp.pool.ShutdownWithTimeout(timeout)
}

// AwaitTermination blocks until the pool terminates or ctx ends.
func (mp *MetricsPool) AwaitTermination(ctx context.Context) error {
	err := mp.pool.AwaitTermination(ctx)
	mp.updateMetrics()
	return err
}

// State returns the wrapped pool's lifecycle state.
func (mp *MetricsPool) State() lifecycle.State {
	return mp.pool.State()
}

// Err returns the first task error.
func (mp *MetricsPool) Err() error {
	return mp.pool.Err()
}

// Size returns the current number of workers.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// QueueSize returns the current number of queued tasks.
func (mp *MetricsPool) QueueSize() int {
	queueSize := mp.pool.QueueSize()
	mp.registry.WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(queueSize))
	return queueSize
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (mp *MetricsPool) ActiveWorkers() int {
	activeWorkers := mp.pool.ActiveWorkers()
	mp.registry.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(activeWorkers))
	return activeWorkers
}

// TotalSubmitted returns the total number of tasks submitted.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted returns the total number of tasks completed.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}

// TotalFailed returns the number of failed tasks.
func (mp *MetricsPool) TotalFailed() int64 {
	return mp.pool.TotalFailed()
}

// TotalDropped returns the number of dropped tasks.
func (mp *MetricsPool) TotalDropped() int64 {
	return mp.pool.TotalDropped()
}
