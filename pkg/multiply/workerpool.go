package multiply

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	mfcontext "github.com/vnykmshr/matflow/pkg/common/context"
	mferrors "github.com/vnykmshr/matflow/pkg/common/errors"
	"github.com/vnykmshr/matflow/pkg/common/validation"
	"github.com/vnykmshr/matflow/pkg/matrix"
	"github.com/vnykmshr/matflow/pkg/metrics"
	"github.com/vnykmshr/matflow/pkg/scheduling/workerpool"
)

// WorkerPoolConfig configures the row-per-task multiplier.
type WorkerPoolConfig struct {
	// Workers is the fixed pool size. Zero means runtime.NumCPU().
	Workers int

	// Timeout bounds the wait for all rows, measured from submission of the
	// first row. Zero means no bound beyond the caller's context.
	Timeout time.Duration

	// Name labels the pool's metrics. Defaults to "thread_pool".
	Name string

	// Metrics instruments each per-call pool.
	Metrics *metrics.Registry
}

// Validate checks the configuration.
func (c WorkerPoolConfig) Validate() error {
	if err := validation.ValidateNonNegative("multiply", "Workers", c.Workers); err != nil {
		return err
	}
	return validation.ValidateNonNegativeDuration("multiply", "Timeout", c.Timeout)
}

// WorkerPool submits one task per output row to a fixed-size worker pool,
// shuts the pool down and waits for termination. Each call uses a fresh
// pool, so no goroutines outlive Multiply.
type WorkerPool struct {
	workers int
	timeout time.Duration
	name    string
	metrics *metrics.Registry

	onWrite func(i, j int) error
}

// NewWorkerPool creates the multiplier.
func NewWorkerPool(config WorkerPoolConfig) (*WorkerPool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Workers == 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.Name == "" {
		config.Name = "thread_pool"
	}
	return &WorkerPool{
		workers: config.Workers,
		timeout: config.Timeout,
		name:    config.Name,
		metrics: config.Metrics,
	}, nil
}

// Name implements Multiplier.
func (m *WorkerPool) Name() string { return "Thread Pool" }

// Workers returns the pool size used per call.
func (m *WorkerPool) Workers() int { return m.workers }

// Multiply implements Multiplier.
//
// If ctx ends or the timeout elapses before every row has finished, running
// rows are interrupted at their next column, queued rows are dropped, and
// Multiply returns an error wrapping errors.ErrTimeout or errors.ErrCanceled
// once the pool has terminated. The first row that fails for any other
// reason interrupts the remaining rows the same way, and its error is
// returned.
func (m *WorkerPool) Multiply(ctx context.Context, a, b *matrix.Matrix) (*matrix.Matrix, error) {
	c, err := prepare(a, b)
	if err != nil {
		return nil, fmt.Errorf("multiply: worker pool: %w", err)
	}
	rows := c.Rows()

	waitCtx, cancel := mfcontext.WithTimeoutOrCancel(ctx, m.timeout)
	defer cancel()
	rowCtx, stopRows := context.WithCancelCause(waitCtx)
	defer stopRows(nil)

	var (
		failOnce sync.Once
		rowErr   error
	)
	pool := workerpool.NewWithConfigAndMetrics(workerpool.Config{
		WorkerCount: m.workers,
		QueueSize:   rows,
		OnTaskComplete: func(_ int, result workerpool.Result) {
			if result.Error == nil || result.Dropped || rowCtx.Err() != nil {
				return
			}
			failOnce.Do(func() {
				rowErr = result.Error
				stopRows(result.Error)
			})
		},
	}, m.name, m.metrics)

	// failed is only safe to call once the pool has terminated.
	failed := func(err error) error {
		if rowErr != nil {
			return fmt.Errorf("multiply: worker pool: %w", rowErr)
		}
		return err
	}

	out := sink{c: c, onWrite: m.onWrite}
	tasks := make([]rowTask, rows)
	for i := range tasks {
		tasks[i] = rowTask{a: a, b: b, out: out, row: i}
		if err := pool.SubmitWithContext(rowCtx, &tasks[i]); err != nil {
			<-pool.ShutdownNow()
			return nil, failed(fmt.Errorf("multiply: worker pool: submit row %d: %w", i, err))
		}
	}

	pool.Shutdown()
	if err := pool.AwaitTermination(waitCtx); err != nil {
		<-pool.ShutdownNow()
		return nil, failed(fmt.Errorf("multiply: worker pool: %w", err))
	}

	if rowErr != nil {
		return nil, failed(nil)
	}
	if pool.TotalDropped() > 0 || pool.Err() != nil {
		if err := mfcontext.Cause(waitCtx, "multiply: worker pool"); err != nil {
			return nil, err
		}
		if err := pool.Err(); err != nil {
			return nil, fmt.Errorf("multiply: worker pool: %w", err)
		}
		return nil, fmt.Errorf("multiply: worker pool: %d rows dropped: %w", pool.TotalDropped(), mferrors.ErrCanceled)
	}
	return c, nil
}
