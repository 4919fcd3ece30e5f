package biquad

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestResponse_DCAndNyquist(t *testing.T) {
	c := Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}

	dc := (c.B0 + c.B1 + c.B2) / (1 + c.A1 + c.A2)
	if got := c.Response(0); !almostEqual(real(got), dc, eps) || !almostEqual(imag(got), 0, eps) {
		t.Fatalf("H(0) = %v, want %v", got, dc)
	}

	ny := (c.B0 - c.B1 + c.B2) / (1 - c.A1 + c.A2)
	if got := c.Response(0.5); !almostEqual(real(got), ny, 1e-12) || !almostEqual(imag(got), 0, 1e-12) {
		t.Fatalf("H(0.5) = %v, want %v", got, ny)
	}
}

func TestResponse_Allpass(t *testing.T) {
	// Reversed denominator as numerator.
	a1, a2 := -0.5, 0.3
	c := Coefficients{B0: a2, B1: a1, B2: 1, A1: a1, A2: a2}
	for _, fc := range []float64{0.002, 0.05, 0.2, 0.41} {
		if db := c.MagnitudeDB(fc); !almostEqual(db, 0, 1e-9) {
			t.Errorf("fc=%v: %v dB, want 0", fc, db)
		}
	}
}

func TestResponse_MatchesFilteredSine(t *testing.T) {
	const fc = 0.05

	c := Design(Lowpass, 0.03, DefaultQ, 0)
	s := NewSection(c)

	// 2000 samples hold a whole number of periods.
	var sumSq float64
	for i := range 4000 {
		y := s.ProcessSample(math.Sin(2 * math.Pi * fc * float64(i)))
		if i >= 2000 {
			sumSq += y * y
		}
	}

	amp := math.Sqrt(2 * sumSq / 2000)
	want := cmplx.Abs(c.Response(fc))
	if !almostEqual(amp, want, 1e-6) {
		t.Fatalf("steady-state amplitude %.6f, response magnitude %.6f", amp, want)
	}
}
