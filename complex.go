package fractal

import (
	"fmt"
	"math"
)

// Complex is a complex number with float64 components.
//
// Complex is a value type: every operation returns a new value and never
// mutates its receiver. All operations are total. In particular, division by
// a zero-modulus value yields the zero value instead of Inf or NaN, which
// keeps the escape-time loop free of special cases. Callers that need to
// detect a vanishing denominator must test its modulus before dividing.
type Complex struct {
	Re, Im float64
}

// C is shorthand for Complex{Re: re, Im: im}.
func C(re, im float64) Complex {
	return Complex{Re: re, Im: im}
}

// Add returns a + b.
func (a Complex) Add(b Complex) Complex {
	return Complex{Re: a.Re + b.Re, Im: a.Im + b.Im}
}

// Sub returns a - b.
func (a Complex) Sub(b Complex) Complex {
	return Complex{Re: a.Re - b.Re, Im: a.Im - b.Im}
}

// Mul returns a * b.
func (a Complex) Mul(b Complex) Complex {
	return Complex{
		Re: a.Re*b.Re - a.Im*b.Im,
		Im: a.Re*b.Im + a.Im*b.Re,
	}
}

// Scale returns a multiplied by the real scalar s.
func (a Complex) Scale(s float64) Complex {
	return Complex{Re: a.Re * s, Im: a.Im * s}
}

// Div returns a / b, or zero when b has zero modulus.
func (a Complex) Div(b Complex) Complex {
	d := b.ModulusSquared()
	if d == 0 {
		return Complex{}
	}
	return Complex{
		Re: (a.Re*b.Re + a.Im*b.Im) / d,
		Im: (a.Im*b.Re - a.Re*b.Im) / d,
	}
}

// DivScalar returns a / s, or zero when s is zero.
func (a Complex) DivScalar(s float64) Complex {
	if s == 0 {
		return Complex{}
	}
	return Complex{Re: a.Re / s, Im: a.Im / s}
}

// Square returns a².
func (a Complex) Square() Complex {
	return Complex{
		Re: a.Re*a.Re - a.Im*a.Im,
		Im: 2 * a.Re * a.Im,
	}
}

// Pow returns a raised to the non-negative integer power n.
// Pow(0) is 1 for every a, including zero. Negative n is treated as 0.
func (a Complex) Pow(n int) Complex {
	switch {
	case n <= 0:
		return Complex{Re: 1}
	case n == 1:
		return a
	case n == 2:
		return a.Square()
	}
	r := a
	for i := 1; i < n; i++ {
		r = r.Mul(a)
	}
	return r
}

// ModulusSquared returns |a|².
func (a Complex) ModulusSquared() float64 {
	return a.Re*a.Re + a.Im*a.Im
}

// Modulus returns |a|.
func (a Complex) Modulus() float64 {
	return math.Sqrt(a.ModulusSquared())
}

// Argument returns the principal angle of a in [0, 2π).
// The argument of zero is defined as 0.
func (a Complex) Argument() float64 {
	if a.Re == 0 && a.Im == 0 {
		return 0
	}
	t := math.Atan2(a.Im, a.Re)
	if t < 0 {
		t += 2 * math.Pi
	}
	// A tiny negative angle can round up to exactly 2π.
	if t >= 2*math.Pi || t == 0 {
		return 0
	}
	return t
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (a Complex) IsFinite() bool {
	return !math.IsNaN(a.Re) && !math.IsInf(a.Re, 0) &&
		!math.IsNaN(a.Im) && !math.IsInf(a.Im, 0)
}

// String formats a as "re + imi" or "re - imi".
func (a Complex) String() string {
	if a.Im < 0 {
		return fmt.Sprintf("%g - %gi", a.Re, -a.Im)
	}
	return fmt.Sprintf("%g + %gi", a.Re, a.Im)
}
