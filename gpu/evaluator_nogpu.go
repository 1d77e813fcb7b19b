//go:build nogpu

package gpu

import "github.com/gogpu/fractal"

// Evaluator is unavailable in nogpu builds.
type Evaluator struct{}

// NewEvaluator always fails in nogpu builds.
func NewEvaluator() (*Evaluator, error) {
	return nil, fractal.ErrFallbackToCPU
}

// Name implements fractal.GPUEvaluator.
func (*Evaluator) Name() string { return "nogpu" }

// Publish implements fractal.GPUEvaluator.
func (*Evaluator) Publish(fractal.GPUParams) error { return fractal.ErrFallbackToCPU }

// Close implements fractal.GPUEvaluator.
func (*Evaluator) Close() {}
