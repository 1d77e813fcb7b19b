// Package config loads the escape CLI configuration from YAML.
//
// Every field has a default, so a file only needs the keys it changes:
//
//	width: 800
//	height: 600
//	mode: gpu
//	parameter: {re: 0.3, im: 0.45}
//	verify_grid: {cols: 3, rows: 3}
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/fractal"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid value")

// Point is a plane coordinate.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ComplexValue is a complex number in YAML form.
type ComplexValue struct {
	Re float64 `yaml:"re"`
	Im float64 `yaml:"im"`
}

// Grid is the CPU verification grid used in GPU mode.
type Grid struct {
	Cols int `yaml:"cols"`
	Rows int `yaml:"rows"`
}

// Config is the file model.
type Config struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Mode    string `yaml:"mode"`
	Workers int    `yaml:"workers"`

	Recurrence string       `yaml:"recurrence"`
	Parameter  ComplexValue `yaml:"parameter"`

	MaxIterations int     `yaml:"max_iterations"`
	ColorRange    float64 `yaml:"color_range"`
	ColorShift    float64 `yaml:"color_shift"`
	Smooth        bool    `yaml:"smooth"`

	Center Point   `yaml:"center"`
	Zoom   float64 `yaml:"zoom"`

	VerifyGrid Grid `yaml:"verify_grid"`

	// PanStep is the pan distance per key press as a fraction of the zoom.
	PanStep float64 `yaml:"pan_step"`
	// ZoomStep is the zoom factor per key press.
	ZoomStep float64 `yaml:"zoom_step"`
}

// Default returns the built-in configuration.
func Default() Config {
	p := fractal.DefaultParams(fractal.KindRationalJulia)
	return Config{
		Width:         320,
		Height:        240,
		Mode:          fractal.ModeCPU.String(),
		Recurrence:    fractal.KindRationalJulia.String(),
		Parameter:     ComplexValue{Re: p.Singularity.Re, Im: p.Singularity.Im},
		MaxIterations: fractal.DefaultMaxIterations,
		ColorRange:    fractal.DefaultColorRange,
		Smooth:        true,
		Zoom:          fractal.DefaultZoom,
		VerifyGrid:    Grid{Cols: 1, Rows: 1},
		PanStep:       0.1,
		ZoomStep:      1.2,
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every field. Workers may be zero (GOMAXPROCS).
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers)
	case c.MaxIterations <= 0:
		return fmt.Errorf("%w: max_iterations %d", ErrInvalid, c.MaxIterations)
	case !positive(c.ColorRange):
		return fmt.Errorf("%w: color_range %g", ErrInvalid, c.ColorRange)
	case !finite(c.ColorShift):
		return fmt.Errorf("%w: color_shift %g", ErrInvalid, c.ColorShift)
	case !positive(c.Zoom):
		return fmt.Errorf("%w: zoom %g", ErrInvalid, c.Zoom)
	case !finite(c.Center.X) || !finite(c.Center.Y):
		return fmt.Errorf("%w: center %v", ErrInvalid, c.Center)
	case !finite(c.Parameter.Re) || !finite(c.Parameter.Im):
		return fmt.Errorf("%w: parameter %v", ErrInvalid, c.Parameter)
	case c.VerifyGrid.Cols <= 0 || c.VerifyGrid.Rows <= 0:
		return fmt.Errorf("%w: verify_grid %dx%d", ErrInvalid, c.VerifyGrid.Cols, c.VerifyGrid.Rows)
	case !positive(c.PanStep):
		return fmt.Errorf("%w: pan_step %g", ErrInvalid, c.PanStep)
	case !positive(c.ZoomStep) || c.ZoomStep <= 1:
		return fmt.Errorf("%w: zoom_step %g must exceed 1", ErrInvalid, c.ZoomStep)
	}
	if _, err := fractal.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := fractal.ParseRecurrenceKind(c.Recurrence); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Options returns the renderer options for c. The evaluator and display
// are left to the caller.
func (c Config) Options() ([]fractal.Option, error) {
	mode, err := fractal.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	kind, err := fractal.ParseRecurrenceKind(c.Recurrence)
	if err != nil {
		return nil, err
	}
	return []fractal.Option{
		fractal.WithMode(mode),
		fractal.WithWorkers(c.Workers),
		fractal.WithRecurrence(kind),
		fractal.WithVerifyGrid(c.VerifyGrid.Cols, c.VerifyGrid.Rows),
	}, nil
}

// Apply loads the view and render parameters into r.
func (c Config) Apply(r *fractal.Renderer) error {
	kind, err := fractal.ParseRecurrenceKind(c.Recurrence)
	if err != nil {
		return err
	}
	if err := r.SetRecurrence(kind); err != nil {
		return err
	}
	if err := r.SetRecurrenceParameter(c.Parameter.Re, c.Parameter.Im); err != nil {
		return err
	}
	if err := r.SetView(c.Center.X, c.Center.Y, c.Zoom); err != nil {
		return err
	}
	return r.SetRenderParams(c.MaxIterations, c.ColorRange, c.ColorShift, c.Smooth)
}

// NewRenderer creates a renderer configured by c. extra options are applied
// after the configured ones.
func (c Config) NewRenderer(extra ...fractal.Option) (*fractal.Renderer, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	r, err := fractal.NewRenderer(c.Width, c.Height, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(r); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }
