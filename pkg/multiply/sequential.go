package multiply

import (
	"context"
	"fmt"

	mfcontext "github.com/vnykmshr/matflow/pkg/common/context"
	"github.com/vnykmshr/matflow/pkg/matrix"
)

// Sequential is the single-goroutine i, j, k reference implementation.
type Sequential struct {
	onWrite func(i, j int) error
}

// NewSequential returns the reference multiplier.
func NewSequential() *Sequential {
	return &Sequential{}
}

// Name implements Multiplier.
func (s *Sequential) Name() string { return "Sequential" }

// Multiply implements Multiplier. ctx is checked once per output row.
func (s *Sequential) Multiply(ctx context.Context, a, b *matrix.Matrix) (*matrix.Matrix, error) {
	c, err := prepare(a, b)
	if err != nil {
		return nil, fmt.Errorf("multiply: sequential: %w", err)
	}

	out := sink{c: c, onWrite: s.onWrite}
	rows, cols := c.Shape()
	for i := 0; i < rows; i++ {
		if err := mfcontext.Cause(ctx, "multiply: sequential"); err != nil {
			return nil, err
		}
		for j := 0; j < cols; j++ {
			if err := out.set(i, j, dot(a, b, i, j)); err != nil {
				return nil, fmt.Errorf("multiply: sequential: %w", err)
			}
		}
	}
	return c, nil
}
