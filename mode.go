package fractal

import (
	"fmt"
	"strings"
)

// Mode selects where per-pixel evaluation happens.
type Mode int

const (
	// ModeCPU sweeps every pixel on the host using the iteration engine.
	ModeCPU Mode = iota

	// ModeGPU publishes the view parameters to a GPUEvaluator, which
	// performs the per-pixel work outside this package.
	ModeGPU
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeCPU:
		return "CPU"
	case ModeGPU:
		return "GPU"
	default:
		return "Unknown"
	}
}

// ParseMode parses "cpu" or "gpu", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cpu":
		return ModeCPU, nil
	case "gpu":
		return ModeGPU, nil
	}
	return ModeCPU, fmt.Errorf("%w: unknown mode %q", ErrInvalidParameter, s)
}
