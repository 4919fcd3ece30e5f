package design

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-rtneural/dsp/filter/biquad"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func mag(c biquad.Coefficients, freq, sr float64) float64 {
	return c.MagnitudeDB(freq / sr)
}

func TestDesigners_MatchNormalized(t *testing.T) {
	const sr = 48000.0

	tests := []struct {
		name string
		got  biquad.Coefficients
		want biquad.Coefficients
	}{
		{"lowpass", Lowpass(1000, 0.9, sr), biquad.Design(biquad.Lowpass, 1000/sr, 0.9, 0)},
		{"highpass", Highpass(80, 0.7, sr), biquad.Design(biquad.Highpass, 80/sr, 0.7, 0)},
		{"bandpass", Bandpass(650, 1.2, sr), biquad.Design(biquad.Bandpass, 650/sr, 1.2, 0)},
		{"peak", Peak(4500, 3, 0.7, sr), biquad.Design(biquad.Peak, 4500/sr, 0.7, 3)},
		{"lowshelf", LowShelf(120, -4, 0.7, sr), biquad.Design(biquad.LowShelf, 120/sr, 0.7, -4)},
		{"highshelf", HighShelf(2500, 6, 0.7, sr), biquad.Design(biquad.HighShelf, 2500/sr, 0.7, 6)},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, tt.got, tt.want)
		}
	}
}

func TestDesigners_InvalidInputsPassThrough(t *testing.T) {
	tests := []struct {
		name       string
		freq, rate float64
	}{
		{"zero-rate", 1000, 0},
		{"negative-rate", 1000, -1},
		{"at-nyquist", 24000, 48000},
		{"above-nyquist", 30000, 48000},
		{"zero-freq", 0, 48000},
	}
	for _, tt := range tests {
		if got := Lowpass(tt.freq, 0.7, tt.rate); got != biquad.Passthrough() {
			t.Errorf("%s: got %+v, want passthrough", tt.name, got)
		}
	}
}

func TestDCBlocker(t *testing.T) {
	const sr = 48000.0

	d := NewDCBlocker(sr)
	c := d.Coefficients()
	if db := mag(c, DCBlockerHz, sr); !almostEqual(db, -3.0103, 0.01) {
		t.Fatalf("corner gain = %.4f dB, want -3.01", db)
	}
	if db := mag(c, 1000, sr); math.Abs(db) > 0.01 {
		t.Fatalf("1 kHz gain = %.4f dB, want ~0", db)
	}

	buf := make([]float64, 48000)
	for i := range buf {
		buf[i] = 0.3
	}
	d.ProcessBlock(buf)
	if tail := buf[len(buf)-1]; math.Abs(tail) > 1e-6 {
		t.Fatalf("DC not removed: tail = %v", tail)
	}
}

func TestLowpassCutoff(t *testing.T) {
	const sr = 48000.0

	if got := LowpassCutoff(0, sr); got != 0 {
		t.Fatalf("0%% should disable, got %v", got)
	}
	if got := LowpassCutoff(-5, sr); got != 0 {
		t.Fatalf("negative should disable, got %v", got)
	}
	if got := LowpassCutoff(100, sr); !almostEqual(got, LowpassMinHz, 1e-9) {
		t.Fatalf("100%% = %v, want %v", got, LowpassMinHz)
	}
	if got := LowpassCutoff(250, sr); !almostEqual(got, LowpassMinHz, 1e-9) {
		t.Fatalf("clamped = %v, want %v", got, LowpassMinHz)
	}

	prev := math.Inf(1)
	for pct := 1.0; pct <= 100; pct++ {
		fc := LowpassCutoff(pct, sr)
		if fc >= prev || fc >= sr/2 {
			t.Fatalf("pct %v: cutoff %v not decreasing below Nyquist", pct, fc)
		}
		prev = fc
	}

	// Midpoint of a log mapping is the geometric mean.
	want := math.Sqrt(0.45 * sr * LowpassMinHz)
	if got := LowpassCutoff(50, sr); !almostEqual(got, want, 1e-6) {
		t.Fatalf("50%% = %v, want %v", got, want)
	}
}
