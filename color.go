package fractal

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	// BackgroundColor fills pixels whose orbit never escaped.
	BackgroundColor = color.RGBA{A: 255}

	// SingularityColor marks pixels whose orbit hit the pole.
	SingularityColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// ColorFor maps an engine result to a pixel colour under the render
// parameters of s.
func ColorFor(r Result, s *State) color.RGBA {
	if r.Singular {
		return SingularityColor
	}
	if r.Iterations >= s.MaxIterations {
		return BackgroundColor
	}
	return HSV(Hue(r.Smooth, s), 1, 1)
}

// Hue returns the hue in [0, 1) for a smooth escape value.
func Hue(smooth float64, s *State) float64 {
	maxIter := float64(max(s.MaxIterations, 1))
	return wrapUnit(smooth/maxIter*s.ColorRange + s.ColorShift)
}

// HSV converts hue, saturation and value, each in [0, 1], to an opaque
// color.RGBA. Hue wraps around; saturation and value are clamped.
func HSV(h, s, v float64) color.RGBA {
	c := colorful.Hsv(wrapUnit(h)*360, clampUnit(s), clampUnit(v))
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func clampUnit(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
