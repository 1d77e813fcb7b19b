package fractal

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/fractal/internal/parallel"
)

// SingularityEvent describes the first pixel or verification point whose
// orbit hit the pole.
type SingularityEvent struct {
	X, Y      int     // pixel coordinates
	Point     Complex // starting plane point
	Iteration int     // step at which the denominator vanished
}

// Renderer owns a State, its frame buffer and the render pipeline.
//
// Mutations mark the renderer dirty. Each Tick with a dirty renderer
// renders one frame from a frozen snapshot of the state, either by sweeping
// every pixel on the CPU or by publishing the parameters to a GPUEvaluator.
// Mutations made while a frame is being rendered show up in the next frame.
//
// All methods are safe for concurrent use. Ticks are serialized.
type Renderer struct {
	tickMu sync.Mutex // serializes Tick
	mu     sync.Mutex // guards everything below except dirty

	dirty atomic.Bool

	state      State
	mode       Mode
	evaluator  GPUEvaluator
	display    DisplaySurface
	verifyCols int
	verifyRows int

	pool  *parallel.WorkerPool
	front *Pixmap // last finished frame
	back  *Pixmap // frame being rendered; touched only under tickMu

	last    SingularityEvent
	hasLast bool
	closed  bool

	// generation counts Resets; tickGen is the generation the running
	// tick snapshotted. Hits from an older generation are dropped.
	generation uint64
	tickGen    uint64
}

// NewRenderer creates a renderer for a width × height viewport.
// The first Tick always renders.
func NewRenderer(width, height int, opts ...Option) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: viewport %dx%d", ErrInvalidParameter, width, height)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	st := NewState(width, height)
	if o.recurrence != KindRationalJulia {
		st.SetRecurrence(o.recurrence)
	}

	r := &Renderer{
		state:      st,
		mode:       o.mode,
		evaluator:  o.evaluator,
		display:    o.display,
		verifyCols: o.verifyCols,
		verifyRows: o.verifyRows,
		pool:       parallel.NewWorkerPool(o.workers),
		front:      NewPixmap(width, height),
		back:       NewPixmap(width, height),
	}
	if r.evaluator != nil {
		trackEvaluator(r.evaluator)
	}
	r.dirty.Store(true)

	Logger().Debug("fractal: renderer created",
		"width", width, "height", height,
		"mode", r.mode, "recurrence", st.Recurrence.Kind(),
		"workers", r.pool.Workers())
	return r, nil
}

// update applies fn to the live state under the lock and marks the
// renderer dirty when fn succeeds.
func (r *Renderer) update(fn func(s *State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	next := r.state
	if err := fn(&next); err != nil {
		return err
	}
	r.state = next
	r.dirty.Store(true)
	return nil
}

// SetRecurrenceParameter moves the user-tunable pole location.
func (r *Renderer) SetRecurrenceParameter(re, im float64) error {
	c := C(re, im)
	if !c.IsFinite() {
		return fmt.Errorf("%w: recurrence parameter %v", ErrInvalidParameter, c)
	}
	return r.update(func(s *State) error {
		s.Params.Singularity = c
		return nil
	})
}

// SetRecurrence switches the iterated map and loads its default constants.
func (r *Renderer) SetRecurrence(kind RecurrenceKind) error {
	return r.update(func(s *State) error {
		s.SetRecurrence(kind)
		return nil
	})
}

// SetView sets the view center and zoom together. Nothing changes when
// either value is refused.
func (r *Renderer) SetView(cx, cy, zoom float64) error {
	return r.update(func(s *State) error {
		if err := s.SetCenter(C(cx, cy)); err != nil {
			return err
		}
		return s.SetZoom(zoom)
	})
}

// Pan moves the view center by (dx, dy) in plane units.
func (r *Renderer) Pan(dx, dy float64) error {
	return r.update(func(s *State) error {
		return s.SetCenter(s.Center.Add(C(dx, dy)))
	})
}

// ZoomIn centers the view on at and divides the zoom by factor.
func (r *Renderer) ZoomIn(at Complex, factor float64) error {
	if err := checkFactor(factor); err != nil {
		return err
	}
	return r.update(func(s *State) error {
		if err := s.SetCenter(at); err != nil {
			return err
		}
		return s.SetZoom(s.Zoom / factor)
	})
}

// ZoomOut multiplies the zoom by factor. The center is kept.
func (r *Renderer) ZoomOut(factor float64) error {
	if err := checkFactor(factor); err != nil {
		return err
	}
	return r.update(func(s *State) error {
		return s.SetZoom(s.Zoom * factor)
	})
}

func checkFactor(f float64) error {
	if !(f > 0) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: zoom factor %g", ErrInvalidParameter, f)
	}
	return nil
}

// Reset restores the default view and render parameters and clears the
// singularity flag and last event. The viewport size and recurrence kind
// are kept. A frame already in flight still completes, but any singularity
// it finds is discarded since it belongs to the view before the reset.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.state.Reset()
	r.last, r.hasLast = SingularityEvent{}, false
	r.generation++
	r.dirty.Store(true)
}

// SetRenderParams sets the iteration cap and colouring parameters.
// Nothing changes when any value is refused.
func (r *Renderer) SetRenderParams(maxIterations int, colorRange, colorShift float64, smooth bool) error {
	return r.update(func(s *State) error {
		if err := s.SetMaxIterations(maxIterations); err != nil {
			return err
		}
		if err := s.SetColorRange(colorRange); err != nil {
			return err
		}
		if err := s.SetColorShift(colorShift); err != nil {
			return err
		}
		s.SmoothColoring = smooth
		return nil
	})
}

// SetViewport resizes the frame. The buffer is reallocated on the next Tick.
func (r *Renderer) SetViewport(width, height int) error {
	return r.update(func(s *State) error {
		return s.SetViewport(width, height)
	})
}

// SetMode switches between CPU and GPU rendering.
func (r *Renderer) SetMode(m Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.mode == m {
		return
	}
	r.mode = m
	r.dirty.Store(true)
	Logger().Info("fractal: render mode changed", "mode", m)
}

// Mode returns the current render mode.
func (r *Renderer) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetEvaluator replaces the GPU evaluator and takes ownership of e.
// The previous evaluator is closed. A nil e detaches the current one.
// On a closed renderer e is left to the caller.
func (r *Renderer) SetEvaluator(e GPUEvaluator) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	old := r.evaluator
	r.evaluator = e
	if r.mode == ModeGPU {
		r.dirty.Store(true)
	}
	r.mu.Unlock()

	if old == e {
		return nil
	}
	if old != nil {
		untrackEvaluator(old)
		old.Close()
	}
	if e != nil {
		trackEvaluator(e)
	}
	return nil
}

// SetDeviceProvider hands a host GPU device to the bound evaluator so it
// renders on the host's device instead of its own. It returns an error
// wrapping ErrFallbackToCPU when no evaluator is bound or the evaluator
// cannot share a device.
func (r *Renderer) SetDeviceProvider(provider any) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	eval := r.evaluator
	r.mu.Unlock()

	if eval == nil {
		return fmt.Errorf("%w: no GPU evaluator bound", ErrFallbackToCPU)
	}
	aware, ok := eval.(DeviceProviderAware)
	if !ok {
		return fmt.Errorf("%w: evaluator %q cannot share a device", ErrFallbackToCPU, eval.Name())
	}
	if err := aware.SetDeviceProvider(provider); err != nil {
		return fmt.Errorf("fractal: set device provider: %w", err)
	}
	r.dirty.Store(true)
	Logger().Debug("fractal: evaluator switched to shared device", "evaluator", eval.Name())
	return nil
}

// HasEvaluator reports whether a GPU evaluator is bound.
func (r *Renderer) HasEvaluator() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evaluator != nil
}

// Dirty reports whether the next Tick will render.
func (r *Renderer) Dirty() bool {
	return r.dirty.Load()
}

// State returns a snapshot of the current state.
func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SingularityFlag reports whether a rendered frame or GPU verification
// has hit the pole since the flag was last cleared.
func (r *Renderer) SingularityFlag() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.SingularityOccurred
}

// ClearSingularityFlag clears the flag after the caller has consumed it.
func (r *Renderer) ClearSingularityFlag() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.SingularityOccurred = false
}

// ConsumeSingularity reads and clears the flag in one step.
// It returns the most recent event when the flag was set.
func (r *Renderer) ConsumeSingularity() (SingularityEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.SingularityOccurred {
		return SingularityEvent{}, false
	}
	r.state.SingularityOccurred = false
	return r.last, true
}

// LastSingularity returns the most recent singularity event. Clearing the
// flag does not forget the event; Reset does.
func (r *Renderer) LastSingularity() (SingularityEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.hasLast
}

// PixelBuffer returns a copy of the last finished frame.
func (r *Renderer) PixelBuffer() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.front.ToImage()
}

// GPUParameters returns the parameter block for the current state.
func (r *Renderer) GPUParameters() GPUParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return GPUParamsFor(&r.state)
}

// Tick renders one frame if the renderer is dirty and does nothing
// otherwise. The context is checked once before any work starts; a frame
// that has started always runs to completion.
func (r *Renderer) Tick(ctx context.Context) error {
	r.tickMu.Lock()
	defer r.tickMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if !r.dirty.Swap(false) {
		r.mu.Unlock()
		return nil
	}
	snap := r.state
	mode := r.mode
	eval := r.evaluator
	r.tickGen = r.generation
	r.mu.Unlock()

	if mode == ModeGPU {
		if err := r.publishGPU(&snap, eval); err == nil {
			return nil
		}
	}
	r.sweepCPU(&snap)
	return nil
}

// publishGPU hands the snapshot to the evaluator. On any failure the
// renderer drops the evaluator and switches to CPU for good, and the
// returned error tells Tick to sweep this frame on the CPU.
func (r *Renderer) publishGPU(snap *State, eval GPUEvaluator) error {
	var err error
	if eval == nil {
		err = fmt.Errorf("%w: no GPU evaluator", ErrFallbackToCPU)
	} else {
		err = eval.Publish(GPUParamsFor(snap))
	}
	if err != nil {
		r.fallbackToCPU(eval, err)
		return err
	}

	if fr, ok := eval.(FrameReader); ok {
		r.ensureBack(snap.Width, snap.Height)
		if rerr := fr.ReadFrame(r.back); rerr != nil {
			Logger().Warn("fractal: GPU frame readback failed", "evaluator", eval.Name(), "err", rerr)
		} else {
			r.swapAndPresent()
		}
	}

	if ev, hit := r.verify(snap); hit {
		r.raiseSingularity(ev)
	}
	return nil
}

func (r *Renderer) fallbackToCPU(eval GPUEvaluator, cause error) {
	r.mu.Lock()
	r.mode = ModeCPU
	if eval != nil && r.evaluator == eval {
		r.evaluator = nil
	}
	r.mu.Unlock()

	if eval != nil {
		untrackEvaluator(eval)
		eval.Close()
	}
	if errors.Is(cause, ErrFallbackToCPU) {
		Logger().Warn("fractal: GPU unavailable, falling back to CPU", "err", cause)
	} else {
		Logger().Warn("fractal: GPU evaluator failed, falling back to CPU", "err", cause)
	}
}

// verify runs the CPU engine on a grid of verification points spanning the
// view, cell centres in row-major order, and returns the first hit.
func (r *Renderer) verify(snap *State) (SingularityEvent, bool) {
	r.mu.Lock()
	cols, rows := r.verifyCols, r.verifyRows
	r.mu.Unlock()

	w, h := float64(snap.Width), float64(snap.Height)
	for j := range rows {
		for i := range cols {
			px := (float64(i) + 0.5) * w / float64(cols)
			py := (float64(j) + 0.5) * h / float64(rows)
			p := snap.PixelToPlane(px, py)
			if res := Compute(p, snap); res.Singular {
				return SingularityEvent{X: int(px), Y: int(py), Point: p, Iteration: res.Iterations}, true
			}
		}
	}
	return SingularityEvent{}, false
}

// sweepCPU renders every pixel of the snapshot into the back buffer, then
// publishes it.
func (r *Renderer) sweepCPU(snap *State) {
	start := time.Now()
	width, height := snap.Width, snap.Height
	r.ensureBack(width, height)
	frame := r.back

	tiles := parallel.Split(width, height, parallel.TileSize)
	hits := make([]int, len(tiles)) // first singular pixel index per tile, -1 if none
	results := make([]Result, len(tiles))

	work := make([]func(), len(tiles))
	for i, t := range tiles {
		hits[i] = -1
		work[i] = func() {
			for y := t.Y; y < t.Y+t.Height; y++ {
				for x := t.X; x < t.X+t.Width; x++ {
					res := Compute(snap.PixelToPlane(float64(x), float64(y)), snap)
					frame.SetRGBA(x, y, ColorFor(res, snap))
					if res.Singular && hits[i] < 0 {
						hits[i] = y*width + x
						results[i] = res
					}
				}
			}
		}
	}
	r.pool.ExecuteAll(work)

	first := -1
	var firstRes Result
	for i, idx := range hits {
		if idx >= 0 && (first < 0 || idx < first) {
			first, firstRes = idx, results[i]
		}
	}
	if first >= 0 {
		x, y := first%width, first/width
		r.raiseSingularity(SingularityEvent{
			X:         x,
			Y:         y,
			Point:     snap.PixelToPlane(float64(x), float64(y)),
			Iteration: firstRes.Iterations,
		})
	}

	Logger().Debug("fractal: CPU sweep done",
		"width", width, "height", height,
		"tiles", len(tiles), "elapsed", time.Since(start))
	r.swapAndPresent()
}

func (r *Renderer) ensureBack(width, height int) {
	if r.back.Width() != width || r.back.Height() != height {
		r.back = NewPixmap(width, height)
	}
}

// swapAndPresent makes the back buffer the visible frame and hands it to
// the display surface.
func (r *Renderer) swapAndPresent() {
	r.mu.Lock()
	r.front, r.back = r.back, r.front
	frame, display := r.front, r.display
	r.mu.Unlock()

	if display == nil {
		Logger().Debug("fractal: no display surface bound, skipping publish")
		return
	}
	if err := display.Present(frame); err != nil {
		Logger().Warn("fractal: display surface publish failed", "err", err)
	}
}

func (r *Renderer) raiseSingularity(ev SingularityEvent) {
	r.mu.Lock()
	if r.tickGen != r.generation {
		r.mu.Unlock()
		Logger().Debug("fractal: dropped singularity from a frame started before reset")
		return
	}
	wasSet := r.state.SingularityOccurred
	r.state.SingularityOccurred = true
	r.last, r.hasLast = ev, true
	r.mu.Unlock()

	if !wasSet {
		Logger().Info("fractal: singularity hit",
			"x", ev.X, "y", ev.Y, "point", ev.Point, "iteration", ev.Iteration)
	}
}

// Close releases the worker pool and the GPU evaluator.
// Close is safe to call multiple times.
func (r *Renderer) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	eval := r.evaluator
	r.evaluator = nil
	r.mu.Unlock()

	r.tickMu.Lock()
	r.pool.Close()
	r.tickMu.Unlock()

	if eval != nil {
		untrackEvaluator(eval)
		eval.Close()
	}
}
