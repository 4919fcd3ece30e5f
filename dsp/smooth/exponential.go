package smooth

import "math"

// settleEpsilon is the distance below which an exponential smoother snaps to
// its target.
const settleEpsilon = 1e-12

// Exponential is a one-pole smoother:
//
//	y = target + (y - target) * exp(-1 / (tau * fs))
//
// The output approaches the target monotonically and never overshoots.
type Exponential struct {
	sampleRate float64
	tau        float64
	coeff      float64

	current float64
	target  float64
}

// NewExponential returns a smoother with time constant tau (seconds) at
// sampleRate. Both current and target start at 0.
func NewExponential(sampleRate, tau float64) (*Exponential, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, err
	}
	if err := validateTimeConstant(tau); err != nil {
		return nil, err
	}

	e := &Exponential{sampleRate: sampleRate, tau: tau}
	e.updateCoefficient()
	return e, nil
}

// SetSampleRate changes the sample rate, keeping the time constant.
func (e *Exponential) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate(sampleRate); err != nil {
		return err
	}
	e.sampleRate = sampleRate
	e.updateCoefficient()
	return nil
}

// SetTimeConstant changes tau in seconds. Zero makes the smoother jump.
func (e *Exponential) SetTimeConstant(seconds float64) error {
	if err := validateTimeConstant(seconds); err != nil {
		return err
	}
	e.tau = seconds
	e.updateCoefficient()
	return nil
}

func (e *Exponential) updateCoefficient() {
	if e.tau == 0 {
		e.coeff = 0
		return
	}
	e.coeff = math.Exp(-1 / (e.tau * e.sampleRate))
}

// SetTargetValue sets the value the output moves toward.
func (e *Exponential) SetTargetValue(v float64) { e.target = v }

// Next advances one sample and returns the smoothed value.
func (e *Exponential) Next() float64 {
	if e.current == e.target {
		return e.current
	}
	e.current = e.target + (e.current-e.target)*e.coeff
	if math.Abs(e.current-e.target) < settleEpsilon {
		e.current = e.target
	}
	return e.current
}

// Fill writes consecutive values of Next to dst.
func (e *Exponential) Fill(dst []float64) {
	if e.current == e.target {
		fill(dst, e.current)
		return
	}
	for i := range dst {
		dst[i] = e.Next()
	}
}

// ClearToTargetValue jumps to the target.
func (e *Exponential) ClearToTargetValue() { e.current = e.target }

// CurrentValue returns the last emitted value.
func (e *Exponential) CurrentValue() float64 { return e.current }

// TargetValue returns the current target.
func (e *Exponential) TargetValue() float64 { return e.target }

// IsSmoothing reports whether the output has not yet reached the target.
func (e *Exponential) IsSmoothing() bool { return e.current != e.target }

// Coefficient returns the per-sample decay factor.
func (e *Exponential) Coefficient() float64 { return e.coeff }
