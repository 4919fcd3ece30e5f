package biquad

import (
	"sync"

	"github.com/cwbudde/algo-rtneural/dsp/filter/biquad/internal/kernel"
	"github.com/cwbudde/algo-vecmath/cpu"
)

// Coefficients of one second-order section, a0 normalized to 1.
//
// Processing is Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Passthrough returns unity-gain coefficients.
func Passthrough() Coefficients {
	return Coefficients{B0: 1}
}

// Section is one biquad with its delay line. The zero value is silent;
// assign Coefficients or call SetCoefficients before use.
type Section struct {
	Coefficients

	d0, d1 float64
}

var (
	blockKernel kernel.Kernel
	kernelOnce  sync.Once
)

func selectKernel() {
	blockKernel = kernel.Select(cpu.DetectFeatures())
}

// Kernel names the block loop ProcessBlock uses on this machine.
func Kernel() string {
	kernelOnce.Do(selectKernel)
	return blockKernel.Name
}

// NewSection returns a section with coefficients c and a cleared delay line.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters one sample.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y
	return y
}

// ProcessBlock filters buf in place without allocating.
func (s *Section) ProcessBlock(buf []float64) {
	if len(buf) == 0 {
		return
	}
	kernelOnce.Do(selectKernel)
	s.d0, s.d1 = blockKernel.Run(kernel.Coefficients(s.Coefficients), s.d0, s.d1, buf)
}

// Reset clears the delay line.
func (s *Section) Reset() {
	s.d0, s.d1 = 0, 0
}

// State returns the delay line as [d0, d1].
func (s *Section) State() [2]float64 {
	return [2]float64{s.d0, s.d1}
}
