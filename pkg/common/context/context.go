// Package context holds small helpers around context.Context shared by the
// pools and multipliers.
package context

import (
	"context"
	"errors"
	"fmt"
	"time"

	mferrors "github.com/vnykmshr/matflow/pkg/common/errors"
)

// WithTimeoutOrCancel creates a context that is canceled either when the parent
// is canceled or when the timeout duration elapses, whichever comes first.
// A zero timeout yields a plain cancelable context with no deadline.
func WithTimeoutOrCancel(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// IsCanceled returns true if the context has been canceled.
// It never blocks, so it is safe to call from inner loops.
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a timeout
func IsTimedOut(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// Cause translates the state of a finished context into a module error:
// ErrTimeout for an expired deadline, ErrCanceled otherwise. Both wrap the
// underlying ctx.Err(). It returns nil while ctx is still live.
func Cause(ctx context.Context, op string) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, mferrors.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, mferrors.ErrCanceled, err)
}
