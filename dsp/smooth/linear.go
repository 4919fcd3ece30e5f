package smooth

import "math"

// Linear ramps toward its target in a fixed number of steps,
// max(1, round(tau * fs)), and lands on the target exactly.
type Linear struct {
	sampleRate float64
	tau        float64
	steps      int

	current   float64
	target    float64
	step      float64
	remaining int
}

// NewLinear returns a linear smoother whose ramps last tau seconds at
// sampleRate. Both current and target start at 0.
func NewLinear(sampleRate, tau float64) (*Linear, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, err
	}
	if err := validateTimeConstant(tau); err != nil {
		return nil, err
	}

	l := &Linear{sampleRate: sampleRate, tau: tau}
	l.updateSteps()
	return l, nil
}

// SetSampleRate changes the sample rate. A ramp in progress keeps its step.
func (l *Linear) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate(sampleRate); err != nil {
		return err
	}
	l.sampleRate = sampleRate
	l.updateSteps()
	return nil
}

// SetTimeConstant changes the ramp duration in seconds.
func (l *Linear) SetTimeConstant(seconds float64) error {
	if err := validateTimeConstant(seconds); err != nil {
		return err
	}
	l.tau = seconds
	l.updateSteps()
	return nil
}

func (l *Linear) updateSteps() {
	l.steps = max(1, int(math.Round(l.tau*l.sampleRate)))
}

// Steps returns the ramp length in samples.
func (l *Linear) Steps() int { return l.steps }

// SetTargetValue starts a new ramp from the current value. Setting the
// target it already has does not restart the ramp.
func (l *Linear) SetTargetValue(v float64) {
	if v == l.target {
		return
	}
	l.target = v
	l.remaining = l.steps
	l.step = (l.target - l.current) / float64(l.steps)
}

// Next advances one sample and returns the smoothed value.
func (l *Linear) Next() float64 {
	if l.remaining == 0 {
		return l.current
	}
	l.remaining--
	if l.remaining == 0 {
		l.current = l.target
	} else {
		l.current += l.step
	}
	return l.current
}

// Fill writes consecutive values of Next to dst.
func (l *Linear) Fill(dst []float64) {
	if l.remaining == 0 {
		fill(dst, l.current)
		return
	}
	for i := range dst {
		dst[i] = l.Next()
	}
}

// ClearToTargetValue jumps to the target and ends any ramp.
func (l *Linear) ClearToTargetValue() {
	l.current = l.target
	l.remaining = 0
}

// CurrentValue returns the last emitted value.
func (l *Linear) CurrentValue() float64 { return l.current }

// TargetValue returns the current target.
func (l *Linear) TargetValue() float64 { return l.target }

// IsSmoothing reports whether a ramp is in progress.
func (l *Linear) IsSmoothing() bool { return l.remaining > 0 }
