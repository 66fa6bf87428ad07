// Command matbench multiplies two random square matrices with a sequential,
// a fork/join and a worker-pool strategy and prints how long each took.
//
// Usage:
//
//	matbench [flags]
//
// With no flags it runs the classic 500×500 comparison once:
//
//	Sequential time is 412 milliseconds
//	Fork/Join pool time is 97 milliseconds
//	Thread Pool time is 88 milliseconds
//
// -schedule repeats the comparison on a cron expression, -metrics-addr
// exposes Prometheus metrics while it runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vnykmshr/matflow/pkg/benchmark"
	mferrors "github.com/vnykmshr/matflow/pkg/common/errors"
	"github.com/vnykmshr/matflow/pkg/multiply"
	"github.com/vnykmshr/matflow/pkg/scheduling/scheduler"
)

type options struct {
	size        int
	maxValue    int
	seed        uint64
	workers     int
	granularity string
	tile        int
	timeout     time.Duration
	verify      bool
	schedule    string
	runs        int
	metricsAddr string
	logLevel    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	def := benchmark.DefaultConfig()
	var o options

	fs := flag.NewFlagSet("matbench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&o.size, "size", def.Size, "edge length N of the N×N operands")
	fs.IntVar(&o.maxValue, "max", def.MaxValue, "largest random element value (inclusive)")
	fs.Uint64Var(&o.seed, "seed", 0, "operand seed; 0 picks a time-based seed per run")
	fs.IntVar(&o.workers, "workers", 0, "workers per pool; 0 means one per CPU")
	fs.StringVar(&o.granularity, "granularity", multiply.Cell.String(), "fork/join task size: cell, row or tile")
	fs.IntVar(&o.tile, "tile", multiply.DefaultTileSize, "tile edge for -granularity=tile")
	fs.DurationVar(&o.timeout, "timeout", 0, "bound on the worker-pool wait; 0 means none")
	fs.BoolVar(&o.verify, "verify", false, "check parallel results against the sequential one")
	fs.StringVar(&o.schedule, "schedule", "", `repeat on a cron expression, e.g. "@every 1m"`)
	fs.IntVar(&o.runs, "runs", 0, "stop after this many scheduled runs; 0 means until interrupted")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	fs.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, opts.logLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return err
	}

	granularity, err := multiply.ParseGranularity(opts.granularity)
	if err != nil {
		logger.Error("invalid flags", "error", err)
		return err
	}

	cfg := benchmark.DefaultConfig()
	cfg.Size = opts.size
	cfg.MaxValue = opts.maxValue
	cfg.Seed = opts.seed
	cfg.Workers = opts.workers
	cfg.Granularity = granularity
	cfg.TileSize = opts.tile
	cfg.Timeout = opts.timeout
	cfg.Verify = opts.verify

	if opts.metricsAddr != "" {
		srv, reg, err := startMetricsServer(opts.metricsAddr, logger)
		if err != nil {
			logger.Error("metrics server failed", "addr", opts.metricsAddr, "error", err)
			return err
		}
		defer srv.stop()
		cfg.Metrics = reg
	}

	runner, err := benchmark.NewRunner(cfg)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}
	defer runner.Close()

	logger.Info("benchmark configured",
		"size", cfg.Size,
		"max", cfg.MaxValue,
		"workers", cfg.Workers,
		"granularity", granularity,
		"verify", cfg.Verify,
	)

	once := func(ctx context.Context, n int) error {
		report, err := runner.Run(ctx)
		if report != nil {
			if _, werr := report.WriteTo(stdout); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
		logger.Debug("run finished", "run", n, "seed", report.Seed, "verified", report.Verified)
		return nil
	}

	if opts.schedule == "" {
		err = once(ctx, 1)
	} else {
		if next, nerr := scheduler.NextRuns(opts.schedule, time.Now(), 1); nerr == nil && len(next) == 1 {
			logger.Info("scheduled", "spec", opts.schedule, "runs", opts.runs, "next", next[0])
		}
		err = scheduler.RepeatWithConfig(ctx, scheduler.Config{
			Spec:    opts.schedule,
			MaxRuns: opts.runs,
			Logger:  logger,
		}, once)
	}
	if err != nil {
		logFailure(logger, err, opts.timeout)
		return err
	}
	return nil
}

func logFailure(logger *slog.Logger, err error, timeout time.Duration) {
	switch {
	case mferrors.IsRetryable(err):
		logger.Error("benchmark timed out", "error", err, "timeout", timeout,
			"hint", "raise -timeout or lower -size and retry")
	case mferrors.IsCanceled(err):
		logger.Warn("benchmark interrupted", "error", err)
	default:
		logger.Error("benchmark failed", "error", err)
	}
}
