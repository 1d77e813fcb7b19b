package fractal

import (
	"image/color"
	"math"
	"testing"
)

func TestHSV(t *testing.T) {
	tests := []struct {
		h, s, v float64
		want    color.RGBA
	}{
		{0, 1, 1, color.RGBA{255, 0, 0, 255}},
		{1.0 / 3, 1, 1, color.RGBA{0, 255, 0, 255}},
		{2.0 / 3, 1, 1, color.RGBA{0, 0, 255, 255}},
		{1.0 / 6, 1, 1, color.RGBA{255, 255, 0, 255}},
		{0.5, 1, 1, color.RGBA{0, 255, 255, 255}},
		{5.0 / 6, 1, 1, color.RGBA{255, 0, 255, 255}},
		{0.3, 0, 1, color.RGBA{255, 255, 255, 255}},
		{0.7, 1, 0, color.RGBA{0, 0, 0, 255}},
		{1, 1, 1, color.RGBA{255, 0, 0, 255}},        // hue wraps
		{-0.5, 1, 1, color.RGBA{0, 255, 255, 255}},   // negative hue wraps
		{0.25, 1, 1, color.RGBA{128, 255, 0, 255}},   // rounds to nearest
		{0, 2, 1.5, color.RGBA{255, 0, 0, 255}},      // s, v clamped above
		{0.5, -1, 1, color.RGBA{255, 255, 255, 255}}, // s clamped below
	}
	for _, tt := range tests {
		if got := HSV(tt.h, tt.s, tt.v); got != tt.want {
			t.Errorf("HSV(%v, %v, %v) = %v, want %v", tt.h, tt.s, tt.v, got, tt.want)
		}
	}
}

func TestHue(t *testing.T) {
	s := NewState(10, 10)
	s.MaxIterations = 100

	tests := []struct {
		smooth, rng, shift float64
		want               float64
	}{
		{50, 1, 0, 0.5},
		{50, 1, 0.75, 0.25},
		{50, 3, 0, 0.5},
		{0, 1, 0.2, 0.2},
	}
	for _, tt := range tests {
		s.ColorRange = tt.rng
		s.ColorShift = tt.shift
		if got := Hue(tt.smooth, &s); math.Abs(got-tt.want) > eps {
			t.Errorf("Hue(%v) range=%v shift=%v = %v, want %v", tt.smooth, tt.rng, tt.shift, got, tt.want)
		}
	}
}

func TestColorFor(t *testing.T) {
	s := NewState(10, 10)

	if got := ColorFor(Result{Iterations: 3, Smooth: math.Inf(1), Singular: true}, &s); got != SingularityColor {
		t.Errorf("ColorFor(singular) = %v, want %v", got, SingularityColor)
	}
	if got := ColorFor(Result{Iterations: s.MaxIterations, Smooth: 4.2}, &s); got != BackgroundColor {
		t.Errorf("ColorFor(in-set) = %v, want %v", got, BackgroundColor)
	}
	// smooth 0 with no shift is hue 0: pure red.
	if got, want := ColorFor(Result{Iterations: 0, Smooth: 0}, &s), (color.RGBA{255, 0, 0, 255}); got != want {
		t.Errorf("ColorFor(escaped) = %v, want %v", got, want)
	}
}
