package fractal

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrFallbackToCPU indicates the GPU evaluator cannot serve the current
// frame. The Renderer switches to CPU mode and sweeps the frame itself.
var ErrFallbackToCPU = errors.New("fractal: falling back to CPU rendering")

// GPUEvaluator performs the per-pixel recurrence outside the host, driven
// only by the flat parameter block published on each dirty tick.
//
// Implementations are provided by GPU backend packages (e.g., fractal/gpu).
// A Publish error of any kind, including ErrFallbackToCPU, makes the
// Renderer fall back to CPU permanently.
type GPUEvaluator interface {
	// Name returns the evaluator name (e.g., "wgpu").
	Name() string

	// Publish hands the parameters for the next frame to the evaluator.
	Publish(p GPUParams) error

	// Close releases GPU resources.
	Close()
}

// FrameReader is implemented by evaluators that can copy the frame they
// produced back into host memory. The Renderer uses it to feed the display
// surface in GPU mode.
type FrameReader interface {
	ReadFrame(dst *Pixmap) error
}

// DeviceProviderAware is implemented by evaluators that can share a GPU
// device with the host application instead of opening their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

// GPUParamsSize is the size in bytes of the uniform block returned by
// GPUParams.Bytes.
const GPUParamsSize = 64

// GPUParams is the flat parameter block consumed by GPU evaluators.
type GPUParams struct {
	Center        Complex
	Zoom          float64
	Aspect        float64 // height / width
	MaxIterations uint32
	ColorRange    float64
	ColorShift    float64
	Smooth        bool
	Kind          RecurrenceKind
	Singularity   Complex
	Constant      Complex
	Scale         float64
	Width         uint32
	Height        uint32
}

// GPUParamsFor builds the parameter block for s.
func GPUParamsFor(s *State) GPUParams {
	kind := KindRationalJulia
	if s.Recurrence != nil {
		kind = s.Recurrence.Kind()
	}
	return GPUParams{
		Center:        s.Center,
		Zoom:          s.Zoom,
		Aspect:        float64(s.Height) / float64(max(s.Width, 1)),
		MaxIterations: uint32(max(s.MaxIterations, 0)), //nolint:gosec // bounded by MaxIterationsLimit
		ColorRange:    s.ColorRange,
		ColorShift:    s.ColorShift,
		Smooth:        s.SmoothColoring,
		Kind:          kind,
		Singularity:   s.Params.Singularity,
		Constant:      s.Params.Constant,
		Scale:         s.Params.Scale,
		Width:         uint32(max(s.Width, 0)),  //nolint:gosec // viewport sizes are positive ints
		Height:        uint32(max(s.Height, 0)), //nolint:gosec // viewport sizes are positive ints
	}
}

// Bytes returns the little-endian uniform layout read by the escape shader:
//
//	offset  0: center.re, center.im, zoom, aspect        (f32 ×4)
//	offset 16: max_iterations (u32), color_range, color_shift (f32), flags (u32)
//	offset 32: kind (u32), scale (f32), width, height (u32)
//	offset 48: singularity.re, singularity.im, constant.re, constant.im (f32 ×4)
//
// Bit 0 of flags is smooth colouring.
func (p GPUParams) Bytes() []byte {
	b := make([]byte, GPUParamsSize)
	le := binary.LittleEndian
	f32 := func(off int, v float64) {
		le.PutUint32(b[off:], math.Float32bits(float32(v)))
	}
	f32(0, p.Center.Re)
	f32(4, p.Center.Im)
	f32(8, p.Zoom)
	f32(12, p.Aspect)
	le.PutUint32(b[16:], p.MaxIterations)
	f32(20, p.ColorRange)
	f32(24, p.ColorShift)
	var flags uint32
	if p.Smooth {
		flags |= 1
	}
	le.PutUint32(b[28:], flags)
	le.PutUint32(b[32:], uint32(p.Kind)) //nolint:gosec // small enum
	f32(36, p.Scale)
	le.PutUint32(b[40:], p.Width)
	le.PutUint32(b[44:], p.Height)
	f32(48, p.Singularity.Re)
	f32(52, p.Singularity.Im)
	f32(56, p.Constant.Re)
	f32(60, p.Constant.Im)
	return b
}
