package fractal

// Option configures a Renderer during creation.
//
// Example:
//
//	// CPU rendering into an in-memory surface
//	r, err := fractal.NewRenderer(320, 240, fractal.WithDisplay(surf))
//
//	// GPU rendering with CPU fallback
//	r, err := fractal.NewRenderer(1280, 720,
//	    fractal.WithMode(fractal.ModeGPU),
//	    fractal.WithEvaluator(eval))
type Option func(*rendererOptions)

type rendererOptions struct {
	mode       Mode
	evaluator  GPUEvaluator
	display    DisplaySurface
	workers    int
	recurrence RecurrenceKind
	verifyCols int
	verifyRows int
}

func defaultOptions() rendererOptions {
	return rendererOptions{
		mode:       ModeCPU,
		recurrence: KindRationalJulia,
		verifyCols: 1,
		verifyRows: 1,
	}
}

// WithMode sets the initial render mode. ModeGPU without an evaluator
// falls back to CPU on the first tick.
func WithMode(m Mode) Option {
	return func(o *rendererOptions) {
		o.mode = m
	}
}

// WithEvaluator binds the GPU evaluator used in ModeGPU.
// The Renderer takes ownership and closes it on Close.
func WithEvaluator(e GPUEvaluator) Option {
	return func(o *rendererOptions) {
		o.evaluator = e
	}
}

// WithDisplay binds the surface that receives finished frames.
// Without one the publish step is skipped.
func WithDisplay(d DisplaySurface) Option {
	return func(o *rendererOptions) {
		o.display = d
	}
}

// WithWorkers sets the number of CPU sweep workers.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *rendererOptions) {
		o.workers = n
	}
}

// WithRecurrence selects the iterated map.
func WithRecurrence(kind RecurrenceKind) Option {
	return func(o *rendererOptions) {
		o.recurrence = kind
	}
}

// WithVerifyGrid sets the plane points checked on the CPU after each GPU
// publish. The grid spans the visible region with cols × rows samples at
// cell centres; the default 1 × 1 checks only the view centre.
// Non-positive values are treated as 1.
func WithVerifyGrid(cols, rows int) Option {
	return func(o *rendererOptions) {
		o.verifyCols = max(cols, 1)
		o.verifyRows = max(rows, 1)
	}
}
