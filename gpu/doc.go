// Package gpu provides a wgpu/hal compute-shader implementation of
// fractal.GPUEvaluator.
//
// The escape-time shader is written in WGSL, compiled to SPIR-V with naga and
// run with one invocation per pixel. Both built-in recurrences are
// evaluated in single precision, so deep zooms lose detail earlier than the
// CPU path.
//
// If GPU initialization fails (no Vulkan adapter available), NewEvaluator
// returns an error wrapping fractal.ErrFallbackToCPU and the caller keeps
// rendering on the CPU.
//
// Usage:
//
//	opts := []fractal.Option{fractal.WithMode(fractal.ModeGPU)}
//	if eval, err := gpu.NewEvaluator(); err == nil {
//	    opts = append(opts, fractal.WithEvaluator(eval))
//	}
//	r, err := fractal.NewRenderer(w, h, opts...)
package gpu
