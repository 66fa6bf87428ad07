package benchmark

import (
	"github.com/vnykmshr/matflow/pkg/multiply"
)

// NewRunnerWithStrategies builds a runner over arbitrary strategies; the
// first is the reference.
func NewRunnerWithStrategies(config Config, strategies ...multiply.Multiplier) *Runner {
	return &Runner{config: config, strategies: strategies}
}
