package model

import (
	"math"

	"github.com/cwbudde/algo-rtneural/dsp/gain"
	"github.com/cwbudde/algo-rtneural/dsp/nn"
	"github.com/cwbudde/algo-rtneural/dsp/smooth"
)

// Instance is a loaded network plus the trims and smoothers applied around
// it.
type Instance struct {
	arch       Arch
	net        *nn.Network
	skip       bool
	inGain     float64
	outGain    float64
	sampleRate float64
	path       string

	params  [MaxInputs - 1]*smooth.Exponential
	nParams int
	x       [MaxInputs]float64
}

// Arch returns the architecture variant.
func (m *Instance) Arch() Arch { return m.arch }

// InputSkip reports whether the dry input is added to the network output.
func (m *Instance) InputSkip() bool { return m.skip }

// InputGain returns the linear gain applied before inference.
func (m *Instance) InputGain() float64 { return m.inGain }

// OutputGain returns the linear gain applied after inference.
func (m *Instance) OutputGain() float64 { return m.outGain }

// InputGainDB returns the input trim in dB.
func (m *Instance) InputGainDB() float64 { return gain.LinearToDB(m.inGain) }

// OutputGainDB returns the output trim in dB.
func (m *Instance) OutputGainDB() float64 { return gain.LinearToDB(m.outGain) }

// SampleRate returns the rate the model was trained at, or 0 if undeclared.
func (m *Instance) SampleRate() float64 { return m.sampleRate }

// SourcePath returns the file the instance was loaded from.
func (m *Instance) SourcePath() string { return m.path }

// Params returns the number of conditioning inputs.
func (m *Instance) Params() int { return m.nParams }

// SetParams sets the conditioning targets. Values beyond Params are ignored.
func (m *Instance) SetParams(p1, p2 float64) {
	if m.nParams > 0 {
		m.params[0].SetTargetValue(p1)
	}
	if m.nParams > 1 {
		m.params[1].SetTargetValue(p2)
	}
}

// ClearParams jumps the conditioning smoothers to their targets.
func (m *Instance) ClearParams() {
	for _, p := range m.params[:m.nParams] {
		p.ClearToTargetValue()
	}
}

// Process runs one sample through the trims and the network.
func (m *Instance) Process(x float64) float64 {
	m.x[0] = x * m.inGain
	for i, p := range m.params[:m.nParams] {
		m.x[i+1] = p.Next()
	}
	y := m.net.Forward(m.x[:m.arch.Inputs])
	if m.skip {
		y += x
	}
	return y * m.outGain
}

// ProcessBlock replaces every sample of buf with Process(sample).
func (m *Instance) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = m.Process(x)
	}
}

// Reset zeroes the recurrent state.
func (m *Instance) Reset() { m.net.Reset() }

// Close releases the network. The instance must not be processed again.
func (m *Instance) Close() error {
	m.net = nil
	return nil
}

// Closed reports whether Close has been called.
func (m *Instance) Closed() bool { return m.net == nil }

// selfTest feeds in through the network with neutral gains and zero
// conditioning and returns the largest deviation from want.
func (m *Instance) selfTest(in, want []float64) float64 {
	var maxErr float64
	clear(m.x[:])
	for i, x := range in {
		m.x[0] = x
		y := m.net.Forward(m.x[:m.arch.Inputs])
		if m.skip {
			y += x
		}
		d := math.Abs(y - want[i])
		if math.IsNaN(d) {
			return math.Inf(1)
		}
		maxErr = max(maxErr, d)
	}
	return maxErr
}

// preroll runs n zero samples to settle the recurrent state.
func (m *Instance) preroll(n int) {
	clear(m.x[:])
	for range n {
		m.net.Forward(m.x[:m.arch.Inputs])
	}
}
