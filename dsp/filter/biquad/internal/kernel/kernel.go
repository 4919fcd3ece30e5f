// Package kernel holds the block loops behind biquad.Section.ProcessBlock
// and picks one for the running CPU.
package kernel

import "github.com/cwbudde/algo-vecmath/cpu"

// Coefficients mirror biquad.Coefficients (a0 normalized to 1).
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Func filters buf in place starting from the delay state (d0, d1) and
// returns the state after the last sample.
type Func func(c Coefficients, d0, d1 float64, buf []float64) (float64, float64)

// Kernel is one block loop together with the SIMD level it is tuned for.
type Kernel struct {
	Name  string
	Level cpu.SIMDLevel
	Run   Func
}

// kernels is ordered by preference.
var kernels = []Kernel{
	{Name: "pairs", Level: cpu.SIMDAVX2, Run: pairs},
	{Name: "scalar", Level: cpu.SIMDNone, Run: scalar},
}

// All returns the known kernels, preferred first.
func All() []Kernel {
	return append([]Kernel(nil), kernels...)
}

// Select returns the preferred kernel usable with f. The scalar loop is
// always usable.
func Select(f cpu.Features) Kernel {
	for _, k := range kernels {
		if usable(f, k.Level) {
			return k
		}
	}
	return kernels[len(kernels)-1]
}

func usable(f cpu.Features, level cpu.SIMDLevel) bool {
	switch level {
	case cpu.SIMDNone:
		return true
	case cpu.SIMDAVX2:
		return f.HasAVX2 && !f.ForceGeneric
	default:
		return false
	}
}

func scalar(c Coefficients, d0, d1 float64, buf []float64) (float64, float64) {
	for i, x := range buf {
		y := c.B0*x + d0
		d0 = c.B1*x - c.A1*y + d1
		d1 = c.B2*x - c.A2*y
		buf[i] = y
	}
	return d0, d1
}

// pairs runs two samples per iteration. Wide out-of-order cores overlap the
// second sample's feedforward terms with the first sample's feedback.
func pairs(c Coefficients, d0, d1 float64, buf []float64) (float64, float64) {
	b0, b1, b2, a1, a2 := c.B0, c.B1, c.B2, c.A1, c.A2

	n := len(buf) &^ 1
	for i := 0; i < n; i += 2 {
		x0, x1 := buf[i], buf[i+1]

		y0 := b0*x0 + d0
		e0 := b1*x0 - a1*y0 + d1
		e1 := b2*x0 - a2*y0

		y1 := b0*x1 + e0
		d0 = b1*x1 - a1*y1 + e1
		d1 = b2*x1 - a2*y1

		buf[i], buf[i+1] = y0, y1
	}
	if n < len(buf) {
		return scalar(c, d0, d1, buf[n:])
	}
	return d0, d1
}
