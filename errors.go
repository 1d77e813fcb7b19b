package fractal

import "errors"

// ErrInvalidParameter is returned when a mutation is refused because the new
// value would break a state invariant. The previous value is kept.
var ErrInvalidParameter = errors.New("fractal: invalid parameter")

// ErrClosed is returned by operations on a closed Renderer.
var ErrClosed = errors.New("fractal: renderer is closed")
