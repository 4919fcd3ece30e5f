package smooth

import (
	"fmt"
	"math"
)

// Smoother is the common contract of [Exponential] and [Linear].
type Smoother interface {
	SetTargetValue(v float64)
	Next() float64
	ClearToTargetValue()
	CurrentValue() float64
	TargetValue() float64
	IsSmoothing() bool
	SetSampleRate(sampleRate float64) error
	SetTimeConstant(seconds float64) error
	Fill(dst []float64)
}

var (
	_ Smoother = (*Exponential)(nil)
	_ Smoother = (*Linear)(nil)
)

func validateSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("smoother sample rate must be > 0 and finite: %f", sampleRate)
	}
	return nil
}

func validateTimeConstant(seconds float64) error {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("smoother time constant must be >= 0 and finite: %f", seconds)
	}
	return nil
}

// fill writes v to every element of dst.
func fill(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}
