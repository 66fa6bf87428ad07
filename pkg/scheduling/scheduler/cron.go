package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	mfcontext "github.com/vnykmshr/matflow/pkg/common/context"
	mferrors "github.com/vnykmshr/matflow/pkg/common/errors"
	"github.com/vnykmshr/matflow/pkg/common/validation"
)

// parser accepts five-field expressions, an optional leading seconds field,
// and descriptors such as "@hourly" or "@every 30s".
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Job is one scheduled run. run counts from 1. ctx is canceled when Repeat
// returns.
type Job func(ctx context.Context, run int) error

// Config configures Repeat.
type Config struct {
	// Spec is the cron expression, e.g. "*/30 * * * * *" or "@every 1m".
	Spec string

	// MaxRuns stops after this many completed runs. Zero means run until
	// the context ends.
	MaxRuns int

	// ContinueOnError keeps the schedule going after a failed run. The
	// first error is still returned.
	ContinueOnError bool

	// Location evaluates Spec. Defaults to time.Local.
	Location *time.Location

	// Logger receives cron diagnostics and skipped runs. Defaults to a
	// discarding logger.
	Logger *slog.Logger
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidateNotEmpty("scheduler", "Spec", c.Spec); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("scheduler", "MaxRuns", c.MaxRuns); err != nil {
		return err
	}
	return ValidateCronExpression(c.Spec)
}

// Repeat runs job on the cron schedule spec until maxRuns runs have
// completed or ctx ends.
func Repeat(ctx context.Context, spec string, maxRuns int, job Job) error {
	return RepeatWithConfig(ctx, Config{Spec: spec, MaxRuns: maxRuns}, job)
}

// RepeatWithConfig runs job on config.Spec. A firing that arrives while the
// previous run is still going is skipped, never queued. On return no run is
// in progress.
//
// It returns the first job error. When MaxRuns is set and ctx ends first it
// returns an error wrapping errors.ErrCanceled or errors.ErrTimeout. A run
// that fails only because ctx ended is not reported as a job error.
func RepeatWithConfig(ctx context.Context, config Config, job Job) error {
	if job == nil {
		return fmt.Errorf("scheduler: job cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	schedule, err := parser.Parse(config.Spec)
	if err != nil {
		return err
	}

	logger := cronLogger{config.Logger}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(config.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		started   atomic.Int64
		completed atomic.Int64
		finished  = make(chan struct{})
		finish    sync.Once
		errMu     sync.Mutex
		firstErr  error
	)
	stop := func() { finish.Do(func() { close(finished) }) }

	c.Schedule(schedule, cron.FuncJob(func() {
		select {
		case <-finished:
			return
		case <-runCtx.Done():
			return
		default:
		}
		n := started.Add(1)
		if config.MaxRuns > 0 && n > int64(config.MaxRuns) {
			return
		}

		err := job(runCtx, int(n))
		if err != nil && mfcontext.IsCanceled(runCtx) {
			// interrupted, not failed
			return
		}
		done := completed.Add(1)
		if err != nil {
			errMu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("scheduler: run %d: %w", n, err)
			}
			errMu.Unlock()
			if !config.ContinueOnError {
				stop()
				return
			}
		}
		if config.MaxRuns > 0 && done >= int64(config.MaxRuns) {
			stop()
		}
	}))

	c.Start()
	select {
	case <-finished:
	case <-ctx.Done():
	}
	cancel()
	<-c.Stop().Done()

	errMu.Lock()
	defer errMu.Unlock()
	if firstErr != nil {
		return firstErr
	}
	if config.MaxRuns > 0 && completed.Load() < int64(config.MaxRuns) {
		return mfcontext.Cause(ctx, "scheduler: repeat")
	}
	return nil
}

// ValidateCronExpression reports whether expr parses. The error wraps
// errors.ErrInvalidConfiguration.
func ValidateCronExpression(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return mferrors.NewValidationError("scheduler", "Spec", expr, err.Error()).
			WithHint(`use five fields, six with seconds, or a descriptor like "@every 10s"`)
	}
	return nil
}

// NextRuns returns the next n activation times of expr after from, in
// from's location.
func NextRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	if err := ValidateCronExpression(expr); err != nil {
		return nil, err
	}
	schedule, _ := parser.Parse(expr)

	out := make([]time.Time, 0, n)
	t := from
	for i := 0; i < n; i++ {
		t = schedule.Next(t)
		if t.IsZero() {
			break
		}
		out = append(out, t)
	}
	return out, nil
}

// cronLogger adapts slog to cron.Logger. Cron's chatty info messages are
// demoted to debug.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
