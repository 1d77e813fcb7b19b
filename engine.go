package fractal

import "math"

const (
	// EscapeRadiusSquared is |z|² beyond which an orbit has escaped.
	EscapeRadiusSquared = 100 * 100

	// SingularityThreshold is the denominator modulus below which a step is
	// treated as a division by zero. It is fixed so the win condition stays
	// well-defined across parameter edits.
	SingularityThreshold = 1e-6
)

// Result is the outcome of iterating one starting point.
type Result struct {
	// Iterations is the number of completed steps.
	Iterations int
	// Smooth is the continuous escape value used for colouring.
	// It is +Inf when Singular is set.
	Smooth float64
	// Singular reports that the denominator vanished at step Iterations.
	Singular bool
}

// InSet reports whether the orbit stayed bounded for the whole iteration cap.
func (r Result) InSet(maxIterations int) bool {
	return !r.Singular && r.Iterations >= maxIterations
}

var ln2 = math.Log(2)

// Compute iterates the state's recurrence from z0 until the orbit escapes,
// the iteration cap is reached or the denominator vanishes.
//
// Compute never mutates s. Raising the singularity flag is the caller's job.
func Compute(z0 Complex, s *State) Result {
	rec := s.Recurrence
	if rec == nil {
		rec = RationalJulia{}
	}
	p := s.Params
	maxIter := s.MaxIterations
	smooth := s.SmoothColoring

	z := z0
	n := 0
	var sv float64
	if smooth {
		sv = math.Exp(-z.Modulus())
	}

	for z.ModulusSquared() < EscapeRadiusSquared && n < maxIter {
		d := rec.Denominator(z, p)
		if d.Modulus() < SingularityThreshold {
			return Result{Iterations: n, Smooth: math.Inf(1), Singular: true}
		}
		z = rec.Advance(z, d, p)
		n++
		if smooth {
			sv += math.Exp(-z.Modulus())
		}
	}

	if !smooth {
		return Result{Iterations: n, Smooth: float64(n)}
	}
	if n < maxIter {
		if m := z.Modulus(); m > 1 && !math.IsInf(m, 0) {
			sv = float64(n) + 1 - math.Log(math.Log(m))/ln2
		} else {
			// Overflowed or NaN orbit: no usable modulus.
			sv = float64(n) + 1
		}
	}
	return Result{Iterations: n, Smooth: sv}
}
