package benchmark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	mferrors "github.com/vnykmshr/matflow/pkg/common/errors"
	"github.com/vnykmshr/matflow/pkg/common/validation"
	"github.com/vnykmshr/matflow/pkg/matrix"
	"github.com/vnykmshr/matflow/pkg/metrics"
	"github.com/vnykmshr/matflow/pkg/multiply"
)

// Tolerance is the relative difference allowed between strategy results.
const Tolerance = 1e-9

// Config configures a benchmark run.
type Config struct {
	// Size is the edge length N of the two N×N operands. Default 500.
	Size int

	// MaxValue bounds the random integers filling the operands, inclusive.
	// Default 100.
	MaxValue int

	// Seed drives operand generation. Zero picks a time-based seed per run.
	Seed uint64

	// Workers sizes both pools. Zero means one worker per CPU.
	Workers int

	// Granularity and TileSize shape the fork/join tasks.
	Granularity multiply.Granularity
	TileSize    int

	// Timeout bounds the worker-pool wait. Zero means unbounded.
	Timeout time.Duration

	// Verify compares every result against the sequential one.
	Verify bool

	// Metrics receives one observation per strategy run. Nil disables it.
	Metrics *metrics.Registry
}

// DefaultConfig returns the configuration of the classic 500×500 run.
func DefaultConfig() Config {
	return Config{
		Size:     500,
		MaxValue: 100,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidatePositive("benchmark", "Size", c.Size); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("benchmark", "MaxValue", c.MaxValue); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("benchmark", "Workers", c.Workers); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("benchmark", "TileSize", c.TileSize); err != nil {
		return err
	}
	return validation.ValidateNonNegativeDuration("benchmark", "Timeout", c.Timeout)
}

// Timing is the wall-clock time of one strategy.
type Timing struct {
	Strategy string
	Duration time.Duration
}

// Report is the outcome of one run. On failure it holds the timings of the
// strategies that finished before the failing one.
type Report struct {
	Size     int
	Seed     uint64
	Timings  []Timing
	Verified bool
}

// WriteTo prints one line per strategy in run order:
//
//	Sequential time is 412 milliseconds
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, t := range r.Timings {
		n, err := fmt.Fprintf(w, "%s time is %d milliseconds\n", t.Strategy, t.Duration.Milliseconds())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Runner owns the strategies for repeated runs. The first strategy is the
// reference the others are verified against.
type Runner struct {
	config     Config
	strategies []multiply.Multiplier
	closers    []io.Closer
}

// NewRunner builds Sequential, Fork/Join and worker-pool strategies from
// config. Close releases the fork/join pool.
func NewRunner(config Config) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	fj, err := multiply.NewForkJoin(multiply.ForkJoinConfig{
		Parallelism: config.Workers,
		Granularity: config.Granularity,
		TileSize:    config.TileSize,
		Metrics:     config.Metrics,
	})
	if err != nil {
		return nil, err
	}
	wp, err := multiply.NewWorkerPool(multiply.WorkerPoolConfig{
		Workers: config.Workers,
		Timeout: config.Timeout,
		Metrics: config.Metrics,
	})
	if err != nil {
		_ = fj.Close()
		return nil, err
	}

	return &Runner{
		config:     config,
		strategies: []multiply.Multiplier{multiply.NewSequential(), fj, wp},
		closers:    []io.Closer{fj},
	}, nil
}

// Strategies returns the strategy names in run order.
func (r *Runner) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// Run generates A and B once and times each strategy on them in order.
// It stops at the first failing strategy.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	seed := r.config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	report := &Report{Size: r.config.Size, Seed: seed}

	factory, err := matrix.NewFactory(seed, r.config.MaxValue)
	if err != nil {
		return report, err
	}
	a, err := factory.Square(r.config.Size)
	if err != nil {
		return report, err
	}
	b, err := factory.Square(r.config.Size)
	if err != nil {
		return report, err
	}

	var reference *matrix.Matrix
	for _, s := range r.strategies {
		start := time.Now()
		c, err := s.Multiply(ctx, a, b)
		elapsed := time.Since(start)
		if err != nil {
			r.observe(s.Name(), "error", elapsed)
			return report, fmt.Errorf("benchmark: %s: %w", s.Name(), err)
		}
		r.observe(s.Name(), "ok", elapsed)
		report.Timings = append(report.Timings, Timing{Strategy: s.Name(), Duration: elapsed})

		if !r.config.Verify {
			continue
		}
		if reference == nil {
			reference = c
			continue
		}
		if !c.EqualApprox(reference, Tolerance) {
			diff, _ := c.MaxRelativeDiff(reference)
			return report, fmt.Errorf("benchmark: %s differs from %s by %g: %w",
				s.Name(), r.strategies[0].Name(), diff, mferrors.ErrResultMismatch)
		}
	}
	report.Verified = r.config.Verify
	return report, nil
}

func (r *Runner) observe(strategy, outcome string, elapsed time.Duration) {
	m := r.config.Metrics
	if m == nil {
		return
	}
	m.BenchmarkRuns.WithLabelValues(strategy, outcome).Inc()
	if outcome == "ok" {
		m.BenchmarkDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
		m.BenchmarkLastDuration.WithLabelValues(strategy).Set(elapsed.Seconds())
	}
}

// Close releases pools owned by the runner.
func (r *Runner) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Run is a one-shot NewRunner, Run, Close.
func Run(ctx context.Context, config Config) (*Report, error) {
	r, err := NewRunner(config)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Run(ctx)
}
