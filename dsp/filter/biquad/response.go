package biquad

import (
	"math"
	"math/cmplx"
)

// Response evaluates the transfer function on the unit circle at the
// normalized frequency fc (f/fs).
func (c Coefficients) Response(fc float64) complex128 {
	z1 := cmplx.Rect(1, -2*math.Pi*fc) // z^-1
	z2 := z1 * z1

	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := 1 + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2
	return num / den
}

// MagnitudeDB is the gain at fc in decibels.
func (c Coefficients) MagnitudeDB(fc float64) float64 {
	return 20 * math.Log10(cmplx.Abs(c.Response(fc)))
}
