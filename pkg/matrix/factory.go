package matrix

import (
	"math/rand/v2"
	"sync"

	"github.com/vnykmshr/matflow/pkg/common/validation"
)

// Factory produces matrices of pseudo-random integral values in
// [0, MaxValue] from one shared seeded source. Two factories created with the
// same seed produce the same sequence of matrices.
type Factory struct {
	maxValue int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewFactory returns a Factory drawing values in [0, maxValue].
func NewFactory(seed uint64, maxValue int) (*Factory, error) {
	if err := validation.ValidateNonNegative("matrix", "maxValue", maxValue); err != nil {
		return nil, err
	}
	return &Factory{
		maxValue: maxValue,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Square returns an n×n random matrix.
func (f *Factory) Square(n int) (*Matrix, error) {
	return f.Random(n, n)
}

// Random returns a rows×cols random matrix.
func (f *Factory) Random(rows, cols int) (*Matrix, error) {
	m, err := New(rows, cols)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for idx := range m.data {
		m.data[idx] = float64(f.rng.IntN(f.maxValue + 1))
	}
	return m, nil
}
