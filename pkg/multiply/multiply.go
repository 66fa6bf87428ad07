package multiply

import (
	"context"
	"fmt"
	"strings"

	mfcontext "github.com/vnykmshr/matflow/pkg/common/context"
	"github.com/vnykmshr/matflow/pkg/matrix"
)

// Multiplier computes C = A·B.
//
// Implementations validate shapes before doing any work and never return a
// partially written result: on any error the returned matrix is nil.
type Multiplier interface {
	// Name is the human-readable strategy name used in reports.
	Name() string

	// Multiply returns a new rows(a)×cols(b) matrix. It fails with an error
	// wrapping errors.ErrDimensionMismatch when cols(a) != rows(b).
	Multiply(ctx context.Context, a, b *matrix.Matrix) (*matrix.Matrix, error)
}

// Granularity selects the size of one fork/join task.
type Granularity int

const (
	// Cell creates one task per output cell.
	Cell Granularity = iota
	// Row creates one task per output row.
	Row
	// Tile creates one task per square block of output cells.
	Tile
)

func (g Granularity) String() string {
	switch g {
	case Cell:
		return "cell"
	case Row:
		return "row"
	case Tile:
		return "tile"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseGranularity parses "cell", "row" or "tile".
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cell", "":
		return Cell, nil
	case "row":
		return Row, nil
	case "tile":
		return Tile, nil
	default:
		return Cell, fmt.Errorf("multiply: unknown granularity %q (want cell, row or tile)", s)
	}
}

// dot returns Σ_k a[i][k]·b[k][j], accumulated in increasing k so every
// strategy produces bit-identical cells.
func dot(a, b *matrix.Matrix, i, j int) float64 {
	aRow := a.Row(i)
	var sum float64
	for k, av := range aRow {
		sum += av * b.At(k, j)
	}
	return sum
}

// sink is the write handle a unit of work holds on the result. Each unit
// writes only the cells it owns, so no locking is involved.
type sink struct {
	c *matrix.Matrix

	// onWrite runs before each store; a non-nil error aborts the unit
	onWrite func(i, j int) error
}

func (s sink) set(i, j int, v float64) error {
	if s.onWrite != nil {
		if err := s.onWrite(i, j); err != nil {
			return fmt.Errorf("cell (%d,%d): %w", i, j, err)
		}
	}
	s.c.Set(i, j, v)
	return nil
}

// prepare validates the operands and allocates the result.
func prepare(a, b *matrix.Matrix) (*matrix.Matrix, error) {
	rows, cols, err := matrix.CheckMultiplicable(a, b)
	if err != nil {
		return nil, err
	}
	return matrix.New(rows, cols)
}

// rowTask owns output row `row` and computes it across the full column
// range of b. It serves both as a worker-pool task and as a Row-granularity
// fork/join task.
type rowTask struct {
	a, b *matrix.Matrix
	out  sink
	row  int
}

func (t *rowTask) Execute(ctx context.Context) error {
	for j := 0; j < t.b.Cols(); j++ {
		if mfcontext.IsCanceled(ctx) {
			return mfcontext.Cause(ctx, fmt.Sprintf("row %d", t.row))
		}
		if err := t.out.set(t.row, j, dot(t.a, t.b, t.row, j)); err != nil {
			return err
		}
	}
	return nil
}
