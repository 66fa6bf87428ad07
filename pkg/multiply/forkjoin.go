package multiply

import (
	"context"
	"fmt"

	mferrors "github.com/vnykmshr/matflow/pkg/common/errors"
	"github.com/vnykmshr/matflow/pkg/common/validation"
	"github.com/vnykmshr/matflow/pkg/matrix"
	"github.com/vnykmshr/matflow/pkg/metrics"
	"github.com/vnykmshr/matflow/pkg/scheduling/forkjoin"
)

// DefaultTileSize is the edge length of a Tile task.
const DefaultTileSize = 16

// ForkJoinConfig configures the work-stealing multiplier.
type ForkJoinConfig struct {
	// Parallelism sizes an owned pool. Zero means GOMAXPROCS.
	Parallelism int

	// Granularity selects cell, row or tile tasks. Default Cell.
	Granularity Granularity

	// TileSize is the tile edge for Tile granularity. Zero means DefaultTileSize.
	TileSize int

	// Pool, when set, is used instead of an owned pool and is not closed by Close.
	Pool *forkjoin.Pool

	// Metrics instruments an owned pool.
	Metrics *metrics.Registry
}

// Validate checks the configuration.
func (c ForkJoinConfig) Validate() error {
	if err := validation.ValidateNonNegative("multiply", "Parallelism", c.Parallelism); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("multiply", "TileSize", c.TileSize); err != nil {
		return err
	}
	if c.Granularity < Cell || c.Granularity > Tile {
		return mferrors.NewValidationError("multiply", "Granularity", c.Granularity, "must be cell, row or tile")
	}
	return nil
}

// ForkJoin decomposes the result into independent units (cells by default),
// and submits them to a work-stealing pool through a recursive splitter.
// Units never depend on one another; the only synchronization is the single
// join at the end of the batch.
type ForkJoin struct {
	pool        *forkjoin.Pool
	ownPool     bool
	granularity Granularity
	tileSize    int

	onWrite func(i, j int) error
}

// NewForkJoin creates the multiplier, starting an owned pool unless
// config.Pool is set.
func NewForkJoin(config ForkJoinConfig) (*ForkJoin, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.TileSize == 0 {
		config.TileSize = DefaultTileSize
	}

	m := &ForkJoin{
		pool:        config.Pool,
		granularity: config.Granularity,
		tileSize:    config.TileSize,
	}
	if m.pool == nil {
		pool, err := forkjoin.NewWithConfig(forkjoin.Config{
			Parallelism: config.Parallelism,
			Name:        "fork_join",
			Metrics:     config.Metrics,
		})
		if err != nil {
			return nil, err
		}
		m.pool = pool
		m.ownPool = true
	}
	return m, nil
}

// Name implements Multiplier.
func (m *ForkJoin) Name() string { return "Fork/Join pool" }

// Granularity reports the task size in use.
func (m *ForkJoin) Granularity() Granularity { return m.granularity }

// Multiply implements Multiplier. It blocks until every unit has run, or
// returns the first unit failure once the remaining units have been skipped
// or have finished.
func (m *ForkJoin) Multiply(ctx context.Context, a, b *matrix.Matrix) (*matrix.Matrix, error) {
	c, err := prepare(a, b)
	if err != nil {
		return nil, fmt.Errorf("multiply: fork/join: %w", err)
	}

	units := m.decompose(a, b, sink{c: c, onWrite: m.onWrite})
	if err := m.pool.Invoke(ctx, &splitTask{units: units}); err != nil {
		return nil, fmt.Errorf("multiply: fork/join: %w", err)
	}
	return c, nil
}

// Close shuts down an owned pool. Repeated calls are harmless.
func (m *ForkJoin) Close() error {
	if !m.ownPool {
		return nil
	}
	return m.pool.Close()
}

// decompose partitions the result into disjoint units of the configured size.
func (m *ForkJoin) decompose(a, b *matrix.Matrix, out sink) []forkjoin.Task {
	rows, cols := out.c.Shape()

	switch m.granularity {
	case Row:
		tasks := make([]rowTask, rows)
		units := make([]forkjoin.Task, rows)
		for i := range tasks {
			tasks[i] = rowTask{a: a, b: b, out: out, row: i}
			units[i] = forkjoinRow{&tasks[i]}
		}
		return units

	case Tile:
		ts := m.tileSize
		var units []forkjoin.Task
		for r := 0; r < rows; r += ts {
			for col := 0; col < cols; col += ts {
				units = append(units, &tileTask{
					a: a, b: b, out: out,
					r0: r, r1: min(r+ts, rows),
					c0: col, c1: min(col+ts, cols),
				})
			}
		}
		return units

	default:
		tasks := make([]cellTask, rows*cols)
		units := make([]forkjoin.Task, rows*cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				idx := i*cols + j
				tasks[idx] = cellTask{a: a, b: b, out: out, i: i, j: j}
				units[idx] = &tasks[idx]
			}
		}
		return units
	}
}

// splitTask halves its range of units and forks both halves until a single
// unit remains, which it runs inline. Forked halves land on the current
// worker's deque, from where idle workers steal them.
type splitTask struct {
	units []forkjoin.Task
}

func (t *splitTask) Compute(c *forkjoin.Ctx) error {
	switch len(t.units) {
	case 0:
		return nil
	case 1:
		return t.units[0].Compute(c)
	}
	mid := len(t.units) / 2
	c.Fork(&splitTask{units: t.units[:mid]}, &splitTask{units: t.units[mid:]})
	return nil
}

// cellTask computes the single cell (i, j).
type cellTask struct {
	a, b *matrix.Matrix
	out  sink
	i, j int
}

func (t *cellTask) Compute(*forkjoin.Ctx) error {
	return t.out.set(t.i, t.j, dot(t.a, t.b, t.i, t.j))
}

// forkjoinRow runs a rowTask under the batch context.
type forkjoinRow struct {
	*rowTask
}

func (t forkjoinRow) Compute(c *forkjoin.Ctx) error {
	return t.Execute(c.Context())
}

// tileTask computes the block [r0, r1) × [c0, c1).
type tileTask struct {
	a, b   *matrix.Matrix
	out    sink
	r0, r1 int
	c0, c1 int
}

func (t *tileTask) Compute(*forkjoin.Ctx) error {
	for i := t.r0; i < t.r1; i++ {
		for j := t.c0; j < t.c1; j++ {
			if err := t.out.set(i, j, dot(t.a, t.b, i, j)); err != nil {
				return err
			}
		}
	}
	return nil
}
