package design

import "github.com/cwbudde/algo-rtneural/dsp/filter/biquad"

// DCBlockerHz is the corner of the DC blocking highpass.
const DCBlockerHz = 35.0

// DCBlocker removes the DC offset a model may add to its output.
type DCBlocker struct {
	section biquad.Section
}

// NewDCBlocker returns a DC blocker designed for sampleRate.
func NewDCBlocker(sampleRate float64) *DCBlocker {
	d := &DCBlocker{}
	d.SetSampleRate(sampleRate)
	return d
}

// SetSampleRate redesigns the highpass, keeping filter state.
func (d *DCBlocker) SetSampleRate(sampleRate float64) {
	d.section.Coefficients = Highpass(DCBlockerHz, biquad.DefaultQ, sampleRate)
}

// ProcessBlock filters buf in place.
func (d *DCBlocker) ProcessBlock(buf []float64) { d.section.ProcessBlock(buf) }

// Reset clears the filter state.
func (d *DCBlocker) Reset() { d.section.Reset() }

// Coefficients returns the current highpass coefficients.
func (d *DCBlocker) Coefficients() biquad.Coefficients { return d.section.Coefficients }
