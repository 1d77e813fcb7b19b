// Package fractal renders interactive escape-time fractals of rational maps.
//
// # Overview
//
// Each pixel is mapped to a starting point z0 on the complex plane and a
// rational recurrence is iterated until the orbit escapes, the iteration
// cap is reached, or the recurrence's denominator vanishes. Hitting the
// vanishing denominator is the "division by zero" event the interactive
// explorer turns into a win condition.
//
// Two recurrences are built in:
//
//	z = (k / (z - v))² + x      KindRationalJulia (default)
//	z = 1 / (z² - shift)        KindInverseQuadratic
//
// # Quick Start
//
//	import "github.com/gogpu/fractal"
//
//	r, err := fractal.NewRenderer(640, 480)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	_ = r.SetRecurrenceParameter(0.3, 0.45)
//	if err := r.Tick(ctx); err != nil {
//	    return err
//	}
//	img := r.PixelBuffer()
//
// # Architecture
//
// The package is organized into:
//   - Values: Complex, State, Params, Result
//   - Engine: Compute, ColorFor
//   - Pipeline: Renderer, Pixmap, DisplaySurface, GPUEvaluator
//
// The wgpu compute-shader evaluator lives in fractal/gpu, display adapters
// in fractal/surface, and the status overlay in fractal/hud.
//
// # Coordinate System
//
// Pixel coordinates have their origin at the top-left with y increasing
// down. Plane coordinates have the imaginary axis increasing up. Zoom is the
// width of the visible plane region; the height follows the aspect ratio.
//
// # Logging
//
// fractal is silent by default. Call SetLogger to route diagnostics to a
// slog.Logger; the logger is handed on to bound GPU evaluators.
package fractal
