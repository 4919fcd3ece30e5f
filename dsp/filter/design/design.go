package design

import (
	"math"

	"github.com/cwbudde/algo-rtneural/dsp/filter/biquad"
)

// normalizedFreq converts freq in Hz to f/fs. ok is false when the result
// is outside (0, 0.5).
func normalizedFreq(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}
	fc := freq / sampleRate
	if fc <= 0 || fc >= 0.5 || math.IsNaN(fc) {
		return 0, false
	}
	return fc, true
}

func rbj(t biquad.Type, freq, q, gainDB, sampleRate float64) biquad.Coefficients {
	fc, ok := normalizedFreq(freq, sampleRate)
	if !ok {
		return biquad.Passthrough()
	}
	return biquad.Design(t, fc, q, gainDB)
}

// Lowpass designs a lowpass biquad at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	return rbj(biquad.Lowpass, freq, q, 0, sampleRate)
}

// Highpass designs a highpass biquad at freq (Hz) with quality factor q.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	return rbj(biquad.Highpass, freq, q, 0, sampleRate)
}

// Bandpass designs a bandpass biquad with 0 dB gain at freq.
func Bandpass(freq, q, sampleRate float64) biquad.Coefficients {
	return rbj(biquad.Bandpass, freq, q, 0, sampleRate)
}

// Peak designs a peaking-EQ biquad with gain in dB.
func Peak(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	return rbj(biquad.Peak, freq, q, gainDB, sampleRate)
}

// LowShelf designs a low-shelf biquad with gain in dB.
func LowShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	return rbj(biquad.LowShelf, freq, q, gainDB, sampleRate)
}

// HighShelf designs a high-shelf biquad with gain in dB.
func HighShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	return rbj(biquad.HighShelf, freq, q, gainDB, sampleRate)
}

const (
	// LowpassMinHz is the cutoff of the input lowpass at 100 %.
	LowpassMinHz = 200.0
	// lowpassMaxRatio places the 0+ % cutoff just below Nyquist.
	lowpassMaxRatio = 0.45
)

// LowpassCutoff maps a 0..100 % control to a lowpass cutoff in Hz.
// The mapping is logarithmic from 0.45*fs down to [LowpassMinHz]. It returns
// 0 for pct <= 0, meaning the filter is disabled.
func LowpassCutoff(pct, sampleRate float64) float64 {
	if pct <= 0 || math.IsNaN(pct) || sampleRate <= 0 {
		return 0
	}
	pct = math.Min(pct, 100)

	hi := lowpassMaxRatio * sampleRate
	lo := math.Min(LowpassMinHz, hi)
	return hi * math.Pow(lo/hi, pct/100)
}
