// Package matrix provides the dense matrix type shared by every multiplication
// strategy, together with constructors for the identity, zero, and random
// inputs used by tests and the benchmark harness.
//
// Matrix stores its elements row-major in one flat slice. Element access is
// unchecked beyond Go's own slice bounds checks: the multipliers validate
// shapes once up front and then index freely, so At and Set stay cheap enough
// for inner loops.
package matrix

import (
	"fmt"
	"math"
	"strings"

	mferrors "github.com/vnykmshr/matflow/pkg/common/errors"
)

// Matrix is a rows×cols matrix of float64 values with fixed dimensions.
type Matrix struct {
	rows, cols int
	data       []float64
}

// New creates a rows×cols matrix initialized to zeros.
func New(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("matrix: %dx%d: %w", rows, cols, mferrors.ErrInvalidDimensions)
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// FromRows copies a rectangular [][]float64 into a new Matrix.
// Ragged or empty input is rejected with ErrInvalidDimensions.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("matrix: no rows: %w", mferrors.ErrInvalidDimensions)
	}
	m, err := New(len(rows), len(rows[0]))
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		if len(r) != m.cols {
			return nil, fmt.Errorf("matrix: row %d has %d columns, want %d: %w",
				i, len(r), m.cols, mferrors.ErrInvalidDimensions)
		}
		copy(m.Row(i), r)
	}
	return m, nil
}

// Identity returns the n×n identity matrix.
func Identity(n int) (*Matrix, error) {
	m, err := New(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Shape returns (rows, cols).
func (m *Matrix) Shape() (rows, cols int) { return m.rows, m.cols }

// At returns the element at (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

// Set stores v at (i, j).
func (m *Matrix) Set(i, j int, v float64) {
	m.data[i*m.cols+j] = v
}

// Row returns row i as a slice aliasing the matrix storage.
// Writes through the slice modify the matrix.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// ToRows returns a deep copy of the matrix as [][]float64.
func (m *Matrix) ToRows() [][]float64 {
	out := make([][]float64, m.rows)
	for i := range out {
		out[i] = append([]float64(nil), m.Row(i)...)
	}
	return out
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{rows: m.rows, cols: m.cols, data: append([]float64(nil), m.data...)}
}

// EqualApprox reports whether m and other have the same shape and every pair
// of elements agrees within a relative tolerance of tol. Elements whose
// magnitude is below 1 are compared with tol as an absolute bound, so zeros
// compare cleanly.
func (m *Matrix) EqualApprox(other *Matrix, tol float64) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for idx, v := range m.data {
		if !closeEnough(v, other.data[idx], tol) {
			return false
		}
	}
	return true
}

// MaxRelativeDiff returns the largest element-wise difference between m and
// other, scaled as in EqualApprox. Shapes must match.
func (m *Matrix) MaxRelativeDiff(other *Matrix) (float64, error) {
	if m.rows != other.rows || m.cols != other.cols {
		return 0, fmt.Errorf("matrix: compare %dx%d with %dx%d: %w",
			m.rows, m.cols, other.rows, other.cols, mferrors.ErrDimensionMismatch)
	}
	var worst float64
	for idx, v := range m.data {
		if d := relativeDiff(v, other.data[idx]); d > worst {
			worst = d
		}
	}
	return worst, nil
}

func closeEnough(a, b, tol float64) bool {
	return relativeDiff(a, b) <= tol
}

func relativeDiff(a, b float64) float64 {
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale < 1 {
		scale = 1
	}
	return math.Abs(a-b) / scale
}

// String renders the matrix one row per line. Intended for debugging small
// matrices only.
func (m *Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		sb.WriteByte('[')
		for j, v := range m.Row(i) {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%g", v)
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}

// CheckMultiplicable validates that a·b is defined: both operands non-nil and
// a.Cols() == b.Rows(). It returns the result shape on success.
func CheckMultiplicable(a, b *Matrix) (rows, cols int, err error) {
	if a == nil || b == nil {
		return 0, 0, fmt.Errorf("matrix: multiply: %w", mferrors.ErrNilMatrix)
	}
	if a.cols != b.rows {
		return 0, 0, fmt.Errorf("matrix: multiply %dx%d by %dx%d: %w",
			a.rows, a.cols, b.rows, b.cols, mferrors.ErrDimensionMismatch)
	}
	return a.rows, b.cols, nil
}
