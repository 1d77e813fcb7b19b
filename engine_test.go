package fractal

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestCompute_SingularityAtStart(t *testing.T) {
	s := NewState(10, 10)
	res := Compute(s.Params.Singularity, &s)

	if !res.Singular {
		t.Fatal("Compute(v).Singular = false, want true")
	}
	if res.Iterations != 0 {
		t.Errorf("Iterations = %d, want 0", res.Iterations)
	}
	if !math.IsInf(res.Smooth, 1) {
		t.Errorf("Smooth = %v, want +Inf", res.Smooth)
	}
}

func TestCompute_SingularityAtKnownIteration(t *testing.T) {
	// Pick z0 so that one step of (1/(z-v))² + x lands exactly on v.
	s := NewState(10, 10)
	v := complex(s.Params.Singularity.Re, s.Params.Singularity.Im)
	x := complex(s.Params.Constant.Re, s.Params.Constant.Im)
	z0 := v + 1/cmplx.Sqrt(v-x)

	res := Compute(C(real(z0), imag(z0)), &s)
	if !res.Singular {
		t.Fatal("Singular = false, want true")
	}
	if res.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", res.Iterations)
	}
}

func TestCompute_InverseQuadraticSingularity(t *testing.T) {
	// With shift = 1, z0 = √2 maps to 1, where z² - shift vanishes.
	s := NewState(10, 10)
	s.SetRecurrence(KindInverseQuadratic)
	s.Params.Singularity = C(1, 0)

	res := Compute(C(math.Sqrt2, 0), &s)
	if !res.Singular || res.Iterations != 1 {
		t.Errorf("Compute(√2) = %+v, want singular at iteration 1", res)
	}
}

func TestCompute_InSet(t *testing.T) {
	// z = 1 is a fixed point of z = 1/z² when shift = 0.
	s := NewState(10, 10)
	s.SetRecurrence(KindInverseQuadratic)
	s.Params.Singularity = Complex{}

	res := Compute(C(1, 0), &s)
	if res.Singular {
		t.Fatal("Singular = true, want false")
	}
	if res.Iterations != s.MaxIterations {
		t.Errorf("Iterations = %d, want %d", res.Iterations, s.MaxIterations)
	}
	if !res.InSet(s.MaxIterations) {
		t.Error("InSet() = false, want true")
	}
	if got := ColorFor(res, &s); got != BackgroundColor {
		t.Errorf("ColorFor(in-set) = %v, want %v", got, BackgroundColor)
	}
}

func TestCompute_DefaultScenario(t *testing.T) {
	s := NewState(10, 10)
	res := Compute(Complex{}, &s)

	if res.Iterations > 100 {
		t.Errorf("Iterations = %d, want <= 100", res.Iterations)
	}
	if !res.Singular && (math.IsNaN(res.Smooth) || math.IsInf(res.Smooth, 0)) {
		t.Errorf("Smooth = %v, want finite", res.Smooth)
	}
}

func TestCompute_EscapeSmoothValue(t *testing.T) {
	s := NewState(10, 10)
	z0 := s.Params.Singularity.Add(C(1e-3, 0))

	res := Compute(z0, &s)
	if res.Singular || res.Iterations != 1 {
		t.Fatalf("Compute() = %+v, want escape after 1 iteration", res)
	}

	d := z0.Sub(s.Params.Singularity)
	z1 := C(1, 0).Div(d).Square().Add(s.Params.Constant)
	want := 2 - math.Log(math.Log(z1.Modulus()))/math.Log(2)
	if math.Abs(res.Smooth-want) > 1e-9 {
		t.Errorf("Smooth = %v, want %v", res.Smooth, want)
	}
}

func TestCompute_NoSmoothing(t *testing.T) {
	s := NewState(10, 10)
	s.SmoothColoring = false

	for _, z0 := range []Complex{C(0, 0), C(2, 2), C(0.25, 0.501)} {
		res := Compute(z0, &s)
		if res.Singular {
			continue
		}
		if res.Smooth != float64(res.Iterations) {
			t.Errorf("Compute(%v).Smooth = %v, want %d", z0, res.Smooth, res.Iterations)
		}
	}
}

func TestCompute_EscapedStart(t *testing.T) {
	s := NewState(10, 10)
	res := Compute(C(200, 0), &s)
	if res.Iterations != 0 || res.Singular {
		t.Errorf("Compute(200) = %+v, want 0 iterations", res)
	}
}

func TestCompute_DoesNotMutateState(t *testing.T) {
	s := NewState(10, 10)
	before := s
	_ = Compute(s.Params.Singularity, &s)
	if s != before {
		t.Error("Compute mutated the state")
	}
}

func TestCompute_NonFiniteModulus(t *testing.T) {
	s := NewState(10, 10)
	tests := []struct {
		name string
		z0   Complex
	}{
		{"overflow", C(1e200, 0)},
		{"NaN", C(math.NaN(), 0)},
		{"Inf", C(0, math.Inf(-1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compute(tt.z0, &s)
			if res.Singular || res.Iterations != 0 {
				t.Fatalf("Compute(%v) = %+v, want 0 iterations", tt.z0, res)
			}
			if res.Smooth != 1 {
				t.Errorf("Compute(%v).Smooth = %v, want 1", tt.z0, res.Smooth)
			}
		})
	}
}
