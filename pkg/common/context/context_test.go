package context

import (
	"context"
	"errors"
	"testing"
	"time"

	mferrors "github.com/vnykmshr/matflow/pkg/common/errors"
)

func TestWithTimeoutOrCancel(t *testing.T) {
	ctx, cancel := WithTimeoutOrCancel(context.Background(), 0)
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Error("zero timeout should not set a deadline")
	}

	ctx2, cancel2 := WithTimeoutOrCancel(context.Background(), time.Millisecond)
	defer cancel2()
	<-ctx2.Done()
	if !IsTimedOut(ctx2) {
		t.Error("expected deadline exceeded")
	}
}

func TestIsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if IsCanceled(ctx) {
		t.Error("live context reported as canceled")
	}
	cancel()
	if !IsCanceled(ctx) {
		t.Error("canceled context not reported")
	}
	if IsTimedOut(ctx) {
		t.Error("plain cancellation is not a timeout")
	}
}

func TestCause(t *testing.T) {
	if err := Cause(context.Background(), "op"); err != nil {
		t.Fatalf("live context: got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Cause(ctx, "await")
	if !errors.Is(err, mferrors.ErrCanceled) || !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want ErrCanceled wrapping context.Canceled", err)
	}

	tctx, tcancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer tcancel()
	<-tctx.Done()
	err = Cause(tctx, "await")
	if !errors.Is(err, mferrors.ErrTimeout) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want ErrTimeout wrapping context.DeadlineExceeded", err)
	}
}
