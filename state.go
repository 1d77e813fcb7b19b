package fractal

import (
	"fmt"
	"math"
)

// Default view and render parameters.
const (
	DefaultZoom          = 3.0
	DefaultMaxIterations = 100
	DefaultColorRange    = 1.0

	// MaxIterationsLimit bounds the iteration cap accepted by SetMaxIterations.
	MaxIterationsLimit = 5000
)

// State is the complete description of one fractal view: the recurrence and
// its constants, the window onto the complex plane, the render parameters
// and the one-shot singularity flag.
//
// State is a plain value. The Renderer owns the live copy and hands out
// snapshots; a sweep always works on a frozen copy.
type State struct {
	Recurrence Recurrence
	Params     Params

	// Center is the plane point under the middle of the viewport.
	Center Complex
	// Zoom is the plane width spanned by the viewport.
	Zoom float64

	Width, Height int

	MaxIterations  int
	ColorRange     float64
	ColorShift     float64 // in [0, 1)
	SmoothColoring bool

	SingularityOccurred bool
}

// NewState returns a state for a width × height viewport using the rational
// Julia recurrence and all defaults. Non-positive dimensions fall back to 1.
func NewState(width, height int) State {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	s := State{
		Recurrence: RationalJulia{},
		Width:      width,
		Height:     height,
	}
	s.Reset()
	return s
}

// Reset restores every default except the viewport size and the recurrence
// kind, and clears the singularity flag.
func (s *State) Reset() {
	if s.Recurrence == nil {
		s.Recurrence = RationalJulia{}
	}
	s.Params = DefaultParams(s.Recurrence.Kind())
	s.Center = Complex{}
	s.Zoom = DefaultZoom
	s.MaxIterations = DefaultMaxIterations
	s.ColorRange = DefaultColorRange
	s.ColorShift = 0
	s.SmoothColoring = true
	s.SingularityOccurred = false
}

// SetRecurrence switches the recurrence and loads its default constants.
func (s *State) SetRecurrence(kind RecurrenceKind) {
	s.Recurrence = RecurrenceFor(kind)
	s.Params = DefaultParams(kind)
}

// JuliaParameters returns the constants specific to the rational Julia
// recurrence. ok is false when another recurrence is active.
func (s *State) JuliaParameters() (view JuliaView, ok bool) {
	if s.Recurrence == nil || s.Recurrence.Kind() != KindRationalJulia {
		return JuliaView{}, false
	}
	return JuliaView{Constant: s.Params.Constant, Scale: s.Params.Scale}, true
}

// SetZoom sets the plane width. Non-positive or non-finite values are refused.
func (s *State) SetZoom(zoom float64) error {
	if !(zoom > 0) || math.IsInf(zoom, 0) {
		return fmt.Errorf("%w: zoom %g", ErrInvalidParameter, zoom)
	}
	s.Zoom = zoom
	return nil
}

// SetCenter sets the view center. Non-finite values are refused.
func (s *State) SetCenter(c Complex) error {
	if !c.IsFinite() {
		return fmt.Errorf("%w: center %v", ErrInvalidParameter, c)
	}
	s.Center = c
	return nil
}

// SetViewport sets the viewport size in pixels.
func (s *State) SetViewport(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalidParameter, width, height)
	}
	s.Width, s.Height = width, height
	return nil
}

// SetMaxIterations sets the iteration cap, clamping it to MaxIterationsLimit.
// Non-positive values are refused.
func (s *State) SetMaxIterations(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: max iterations %d", ErrInvalidParameter, n)
	}
	s.MaxIterations = min(n, MaxIterationsLimit)
	return nil
}

// SetColorRange sets the hue cycling factor. Non-positive values are refused.
func (s *State) SetColorRange(r float64) error {
	if !(r > 0) || math.IsInf(r, 0) {
		return fmt.Errorf("%w: color range %g", ErrInvalidParameter, r)
	}
	s.ColorRange = r
	return nil
}

// SetColorShift sets the hue offset, wrapped into [0, 1).
func (s *State) SetColorShift(shift float64) error {
	if math.IsNaN(shift) || math.IsInf(shift, 0) {
		return fmt.Errorf("%w: color shift %g", ErrInvalidParameter, shift)
	}
	s.ColorShift = wrapUnit(shift)
	return nil
}

// PlaneSize returns the width and height of the visible plane region.
func (s *State) PlaneSize() (w, h float64) {
	return s.Zoom, s.Zoom * float64(s.Height) / float64(s.Width)
}

// PixelToPlane maps pixel (x, y), origin top-left, to the complex plane.
// The imaginary axis grows upward while pixel y grows downward.
func (s *State) PixelToPlane(x, y float64) Complex {
	w, h := s.PlaneSize()
	fw, fh := float64(s.Width), float64(s.Height)
	return Complex{
		Re: x/fw*w + s.Center.Re - w/2,
		Im: (fh-y)/fh*h + s.Center.Im - h/2,
	}
}

// PlaneToPixel is the inverse of PixelToPlane.
func (s *State) PlaneToPixel(c Complex) (x, y float64) {
	w, h := s.PlaneSize()
	fw, fh := float64(s.Width), float64(s.Height)
	x = (c.Re - s.Center.Re + w/2) / w * fw
	y = fh - (c.Im-s.Center.Im+h/2)/h*fh
	return x, y
}

// wrapUnit maps v into [0, 1).
func wrapUnit(v float64) float64 {
	v = math.Mod(v, 1)
	if v < 0 {
		v++
	}
	if v >= 1 {
		v = 0
	}
	return v
}
