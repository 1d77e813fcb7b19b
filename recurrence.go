package fractal

import (
	"fmt"
	"strings"
)

// RecurrenceKind identifies one of the supported rational recurrences.
type RecurrenceKind int

const (
	// KindRationalJulia iterates z = (k / (z - v))² + x.
	// The pole sits at z = v.
	KindRationalJulia RecurrenceKind = iota

	// KindInverseQuadratic iterates z = 1 / (z² - shift).
	// The poles sit at the square roots of shift.
	KindInverseQuadratic
)

// String returns the configuration name of the kind.
func (k RecurrenceKind) String() string {
	switch k {
	case KindRationalJulia:
		return "rational"
	case KindInverseQuadratic:
		return "inverse-quadratic"
	default:
		return "unknown"
	}
}

// ParseRecurrenceKind parses a configuration name produced by
// RecurrenceKind.String. Matching is case-insensitive.
func ParseRecurrenceKind(s string) (RecurrenceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rational", "rational-julia":
		return KindRationalJulia, nil
	case "inverse-quadratic", "inverse":
		return KindInverseQuadratic, nil
	}
	return 0, fmt.Errorf("%w: unknown recurrence %q", ErrInvalidParameter, s)
}

// Params holds the constants of the iterated map.
//
// Singularity is the one constant the user edits: v for the rational Julia
// map, shift for the inverse quadratic map. Constant and Scale are the
// fixed x and k of the rational Julia map and are ignored by the inverse
// quadratic map.
type Params struct {
	Singularity Complex
	Constant    Complex
	Scale       float64
}

// Recurrence is the per-iteration update rule.
//
// Denominator returns the expression whose vanishing is the singularity
// event. Advance produces the next z from the current z and the
// denominator already computed for it, so the engine evaluates the
// denominator exactly once per step.
type Recurrence interface {
	Kind() RecurrenceKind
	Denominator(z Complex, p Params) Complex
	Advance(z, denominator Complex, p Params) Complex
}

// RationalJulia is z = (k / (z - v))² + x.
type RationalJulia struct{}

// Kind implements Recurrence.
func (RationalJulia) Kind() RecurrenceKind { return KindRationalJulia }

// Denominator implements Recurrence.
func (RationalJulia) Denominator(z Complex, p Params) Complex {
	return z.Sub(p.Singularity)
}

// Advance implements Recurrence.
func (RationalJulia) Advance(_, d Complex, p Params) Complex {
	return Complex{Re: p.Scale}.Div(d).Square().Add(p.Constant)
}

// InverseQuadratic is z = 1 / (z² - shift).
type InverseQuadratic struct{}

// Kind implements Recurrence.
func (InverseQuadratic) Kind() RecurrenceKind { return KindInverseQuadratic }

// Denominator implements Recurrence.
func (InverseQuadratic) Denominator(z Complex, p Params) Complex {
	return z.Square().Sub(p.Singularity)
}

// Advance implements Recurrence.
func (InverseQuadratic) Advance(_, d Complex, _ Params) Complex {
	return Complex{Re: 1}.Div(d)
}

var (
	_ Recurrence = RationalJulia{}
	_ Recurrence = InverseQuadratic{}
)

// RecurrenceFor returns the strategy for kind. Unknown kinds map to the
// rational Julia recurrence.
func RecurrenceFor(kind RecurrenceKind) Recurrence {
	if kind == KindInverseQuadratic {
		return InverseQuadratic{}
	}
	return RationalJulia{}
}

// DefaultParams returns the starting constants for kind.
func DefaultParams(kind RecurrenceKind) Params {
	p := Params{Singularity: C(0.25, 0.5)}
	if kind == KindRationalJulia {
		p.Constant = C(0.15, -0.2)
		p.Scale = 1
	}
	return p
}

// JuliaView exposes the constants that only the rational Julia recurrence
// uses. It is returned by State.JuliaParameters.
type JuliaView struct {
	Constant Complex
	Scale    float64
}
