package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/matflow/internal/testutil"
	mferrors "github.com/vnykmshr/matflow/pkg/common/errors"
)

// The package documentation lists these; each must stay parseable.
func TestDocumentedExpressions(t *testing.T) {
	from := time.Date(2024, 3, 4, 8, 59, 0, 0, time.UTC) // a Monday
	tests := []struct {
		expr string
		want time.Time
	}{
		{"30 * * * * *", time.Date(2024, 3, 4, 8, 59, 30, 0, time.UTC)},
		{"0 9 * * 1-5", time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
		{"@every 5m", time.Date(2024, 3, 4, 9, 4, 0, 0, time.UTC)},
		{"@hourly", time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			runs, err := NextRuns(tt.expr, from, 1)
			testutil.AssertNoError(t, err)
			if len(runs) != 1 {
				t.Fatalf("NextRuns(%q) returned %d times, want 1", tt.expr, len(runs))
			}
			if !runs[0].Equal(tt.want) {
				t.Errorf("next run of %q = %v, want %v", tt.expr, runs[0], tt.want)
			}
		})
	}
}

func TestValidateCronExpression(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"* * * * *", false},
		{"*/5 * * * * *", false},
		{"30 * * * * *", false},
		{"@every 5m", false},
		{"0 9 * * 1-5", false},
		{"@hourly", false},
		{"@every 10s", false},
		{"", true},
		{"not a cron", true},
		{"61 * * * *", true},
		{"@every", true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateCronExpression(tt.expr)
			if tt.wantErr {
				testutil.AssertErrorIs(t, err, mferrors.ErrInvalidConfiguration)
			} else {
				testutil.AssertNoError(t, err)
			}
		})
	}
}

func TestNextRuns(t *testing.T) {
	from := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	runs, err := NextRuns("30 9 * * *", from, 2)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(runs), 2)
	testutil.AssertEqual(t, runs[0], time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC))
	testutil.AssertEqual(t, runs[1], time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC))

	runs, err = NextRuns("*/15 * * * * *", from, 3)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, runs[2], from.Add(45*time.Second))

	_, err = NextRuns("bogus", from, 1)
	testutil.AssertErrorIs(t, err, mferrors.ErrInvalidConfiguration)
}

func TestRepeatValidation(t *testing.T) {
	ctx := context.Background()
	noop := func(context.Context, int) error { return nil }

	testutil.AssertErrorIs(t, Repeat(ctx, "", 1, noop), mferrors.ErrInvalidConfiguration)
	testutil.AssertErrorIs(t, Repeat(ctx, "@every 1s", -1, noop), mferrors.ErrInvalidConfiguration)
	testutil.AssertErrorIs(t, Repeat(ctx, "every second", 1, noop), mferrors.ErrInvalidConfiguration)
	testutil.AssertError(t, Repeat(ctx, "@every 1s", 1, nil))
}

func TestRepeatMaxRuns(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	var calls atomic.Int32
	var seen []int
	err := Repeat(ctx, "@every 1s", 2, func(_ context.Context, run int) error {
		calls.Add(1)
		seen = append(seen, run)
		return nil
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, calls.Load(), int32(2))
	testutil.AssertEqual(t, seen[0], 1)
	testutil.AssertEqual(t, seen[1], 2)
}

func TestRepeatStopsOnError(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	boom := errors.New("boom")
	var calls atomic.Int32
	err := Repeat(ctx, "@every 1s", 5, func(context.Context, int) error {
		calls.Add(1)
		return boom
	})
	testutil.AssertErrorIs(t, err, boom)
	testutil.AssertEqual(t, calls.Load(), int32(1))
}

func TestRepeatContinueOnError(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	boom := errors.New("boom")
	var calls atomic.Int32
	err := RepeatWithConfig(ctx, Config{Spec: "@every 1s", MaxRuns: 2, ContinueOnError: true},
		func(_ context.Context, run int) error {
			calls.Add(1)
			if run == 1 {
				return boom
			}
			return nil
		})
	testutil.AssertErrorIs(t, err, boom)
	testutil.AssertEqual(t, calls.Load(), int32(2))
}

func TestRepeatUntilContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	err := Repeat(ctx, "@every 1s", 0, func(context.Context, int) error {
		calls.Add(1)
		return nil
	})
	testutil.AssertNoError(t, err)
	// "@every" aligns to whole seconds, so one or two firings fit
	if n := calls.Load(); n < 1 || n > 2 {
		t.Fatalf("got %d runs, want 1 or 2", n)
	}
}

func TestRepeatInterruptedBeforeMaxRuns(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := Repeat(ctx, "@every 1s", 3, func(context.Context, int) error { return nil })
	testutil.AssertErrorIs(t, err, mferrors.ErrTimeout)
}

func TestRepeatSkipsOverlappingRuns(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3500*time.Millisecond)
	defer cancel()

	var running, maxRunning, calls atomic.Int32
	err := Repeat(ctx, "@every 1s", 0, func(ctx context.Context, _ int) error {
		calls.Add(1)
		n := running.Add(1)
		defer running.Add(-1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		<-ctx.Done()
		return ctx.Err()
	})

	// the interrupted run is not a failure
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, calls.Load(), int32(1))
	testutil.AssertEqual(t, maxRunning.Load(), int32(1))
	testutil.AssertEqual(t, running.Load(), int32(0))
}
