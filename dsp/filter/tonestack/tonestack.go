// Package tonestack implements the five-band equalizer that can sit before
// or after the model.
//
// In peak mode the bands run in the order depth, bass, mid, treble,
// presence. In bandpass mode only the mid band runs, as a bandpass scaled
// by the mid gain. Each band's coefficients are recomputed only when one of
// its own controls changed since the previous [ToneStack.Update].
package tonestack

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rtneural/dsp/filter/biquad"
	"github.com/cwbudde/algo-rtneural/dsp/filter/design"
)

// Fixed band corners.
const (
	DepthHz    = 75.0
	BassHz     = 120.0
	TrebleHz   = 2500.0
	PresenceHz = 4500.0

	fixedQ = biquad.DefaultQ
)

// MidType selects the shape of the mid band.
type MidType int

const (
	MidPeak MidType = iota
	MidBandpass
)

// Settings are the tone controls read once per block.
type Settings struct {
	DepthDB    float64
	BassDB     float64
	MidDB      float64
	TrebleDB   float64
	PresenceDB float64

	MidHz   float64
	MidQ    float64
	MidType MidType
}

// DefaultSettings returns a flat peak-mode stack.
func DefaultSettings() Settings {
	return Settings{MidHz: 650, MidQ: fixedQ, MidType: MidPeak}
}

// Band positions in the peak-mode cascade.
const (
	bandDepth = iota
	bandBass
	bandMid
	bandTreble
	bandPresence
	numBands
)

// ToneStack holds the peak-mode cascade, the bandpass-mode mid filter and
// the controls they were last designed for.
type ToneStack struct {
	sampleRate float64

	peaks *biquad.Chain
	band  *biquad.Chain

	last   Settings
	primed bool

	recomputes int
}

// New returns a flat tone stack for sampleRate.
func New(sampleRate float64) (*ToneStack, error) {
	flat := make([]biquad.Coefficients, numBands)
	for i := range flat {
		flat[i] = biquad.Passthrough()
	}
	t := &ToneStack{
		peaks: biquad.NewChain(flat),
		band:  biquad.NewChain([]biquad.Coefficients{biquad.Passthrough()}),
	}
	if err := t.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	t.Update(DefaultSettings())
	return t, nil
}

// SetSampleRate changes the design rate. All bands are redesigned on the
// next Update.
func (t *ToneStack) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("tonestack sample rate must be > 0 and finite: %f", sampleRate)
	}
	t.sampleRate = sampleRate
	t.primed = false
	return nil
}

// Update redesigns the bands whose controls differ from the previous call.
func (t *ToneStack) Update(s Settings) {
	sr := t.sampleRate
	prev := t.last
	all := !t.primed

	if all || s.DepthDB != prev.DepthDB {
		t.peaks.SetCoefficients(bandDepth, design.Peak(DepthHz, s.DepthDB, fixedQ, sr))
		t.recomputes++
	}
	if all || s.BassDB != prev.BassDB {
		t.peaks.SetCoefficients(bandBass, design.LowShelf(BassHz, s.BassDB, fixedQ, sr))
		t.recomputes++
	}
	if all || s.MidDB != prev.MidDB || s.MidHz != prev.MidHz || s.MidQ != prev.MidQ || s.MidType != prev.MidType {
		switch s.MidType {
		case MidBandpass:
			t.band.SetCoefficients(0, design.Bandpass(s.MidHz, s.MidQ, sr))
			t.band.SetGain(math.Pow(10, s.MidDB/20))
		default:
			t.peaks.SetCoefficients(bandMid, design.Peak(s.MidHz, s.MidDB, s.MidQ, sr))
		}
		t.recomputes++
	}
	if all || s.TrebleDB != prev.TrebleDB {
		t.peaks.SetCoefficients(bandTreble, design.HighShelf(TrebleHz, s.TrebleDB, fixedQ, sr))
		t.recomputes++
	}
	if all || s.PresenceDB != prev.PresenceDB {
		t.peaks.SetCoefficients(bandPresence, design.Peak(PresenceHz, s.PresenceDB, fixedQ, sr))
		t.recomputes++
	}

	t.last = s
	t.primed = true
}

func (t *ToneStack) active() *biquad.Chain {
	if t.last.MidType == MidBandpass {
		return t.band
	}
	return t.peaks
}

// ProcessBlock filters buf in place.
func (t *ToneStack) ProcessBlock(buf []float64) {
	t.active().ProcessBlock(buf)
}

// Reset clears the state of every band.
func (t *ToneStack) Reset() {
	t.peaks.Reset()
	t.band.Reset()
}

// Settings returns the controls the bands are currently designed for.
func (t *ToneStack) Settings() Settings { return t.last }

// MagnitudeDB returns the combined response of the active bands at freq Hz.
func (t *ToneStack) MagnitudeDB(freq float64) float64 {
	return t.active().MagnitudeDB(freq / t.sampleRate)
}
