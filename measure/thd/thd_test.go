package thd

import (
	"math"
	"testing"
)

func identity(buf []float64) {}

func TestMeasureCleanTone(t *testing.T) {
	res, err := Measure(ProcessorFunc(identity), Config{SampleRate: 48000})
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}

	binHz := 48000.0 / defaultFFTSize
	if math.Abs(res.Fundamental-1000) > binHz/2 {
		t.Fatalf("fundamental = %f, want within half a bin of 1000", res.Fundamental)
	}
	if math.Abs(res.Level-defaultAmplitude) > 1e-9 {
		t.Fatalf("level = %.12f, want %f", res.Level, defaultAmplitude)
	}
	if res.THD > 1e-9 || res.THDN > 1e-9 {
		t.Fatalf("clean tone: THD=%g THD+N=%g", res.THD, res.THDN)
	}
	if res.SINAD < 150 {
		t.Fatalf("SINAD = %f dB, want > 150", res.SINAD)
	}
}

func TestMeasureGainScalesLevelOnly(t *testing.T) {
	half := ProcessorFunc(func(buf []float64) {
		for i := range buf {
			buf[i] *= 0.5
		}
	})
	res, err := Measure(half, Config{SampleRate: 44100, FFTSize: 4096, Amplitude: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Level-0.4) > 1e-9 {
		t.Fatalf("level = %f, want 0.4", res.Level)
	}
	if res.THD > 1e-9 {
		t.Fatalf("THD = %g", res.THD)
	}
}

func TestMeasureSecondHarmonic(t *testing.T) {
	// x + 0.1x^2 at amplitude 0.5 puts 0.0125 at 2f: 2.5 % of the fundamental.
	square := ProcessorFunc(func(buf []float64) {
		for i, x := range buf {
			buf[i] = x + 0.1*x*x
		}
	})
	res, err := Measure(square, Config{SampleRate: 48000})
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(res.THD-0.025) > 1e-6 {
		t.Fatalf("THD = %.8f, want 0.025", res.THD)
	}
	if math.Abs(res.EvenHD-0.025) > 1e-6 || res.OddHD > 1e-6 {
		t.Fatalf("even=%g odd=%g", res.EvenHD, res.OddHD)
	}
	if math.Abs(res.Harmonics[0]-0.025) > 1e-6 {
		t.Fatalf("H2 = %g", res.Harmonics[0])
	}
	if res.Noise > 1e-6 {
		t.Fatalf("noise = %g", res.Noise)
	}
	if math.Abs(res.THDdB-20*math.Log10(0.025)) > 1e-3 {
		t.Fatalf("THD dB = %f", res.THDdB)
	}
}

func TestMeasureSymmetricClipperIsOdd(t *testing.T) {
	clip := ProcessorFunc(func(buf []float64) {
		for i, x := range buf {
			buf[i] = math.Tanh(4 * x)
		}
	})
	res, err := Measure(clip, Config{SampleRate: 48000, Amplitude: 0.9})
	if err != nil {
		t.Fatal(err)
	}
	if res.THD < 0.05 {
		t.Fatalf("THD = %g, want heavy distortion", res.THD)
	}
	if res.EvenHD > res.OddHD*1e-6 {
		t.Fatalf("even=%g odd=%g, want odd-only", res.EvenHD, res.OddHD)
	}
}

func TestMaxHarmonics(t *testing.T) {
	clip := ProcessorFunc(func(buf []float64) {
		for i, x := range buf {
			buf[i] = math.Tanh(3 * x)
		}
	})
	res, err := Measure(clip, Config{SampleRate: 48000, MaxHarmonics: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Harmonics) != 3 {
		t.Fatalf("got %d harmonics, want 3", len(res.Harmonics))
	}
	if res.THDN < res.THD {
		t.Fatalf("THD+N %g below THD %g", res.THDN, res.THD)
	}
}

func TestAnalyzeUsesTail(t *testing.T) {
	cfg := Config{SampleRate: 48000, FFTSize: 1024}
	sig, err := Tone(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(sig) != 1024+512 {
		t.Fatalf("tone length = %d", len(sig))
	}

	// Garbage in the settling region is ignored.
	for i := range 512 {
		sig[i] = 1
	}
	res, err := Analyze(sig, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.THD > 1e-9 {
		t.Fatalf("THD = %g", res.THD)
	}

	if _, err := Analyze(sig[:100], cfg); err == nil {
		t.Fatal("expected error for short signal")
	}
}

func TestSilentOutput(t *testing.T) {
	mute := ProcessorFunc(func(buf []float64) { clear(buf) })
	res, err := Measure(mute, Config{SampleRate: 48000, FFTSize: 1024})
	if err != nil {
		t.Fatal(err)
	}
	if res.Level != 0 || !math.IsInf(res.THDdB, -1) {
		t.Fatalf("silent result = %+v", res)
	}
}

func TestConfigValidation(t *testing.T) {
	bad := []Config{
		{},
		{SampleRate: math.NaN()},
		{SampleRate: 48000, FFTSize: 1000},
		{SampleRate: 48000, FFTSize: 8},
		{SampleRate: 48000, RangeLowerFreq: 20000, RangeUpperFreq: 100},
	}
	for i, cfg := range bad {
		if _, err := Measure(ProcessorFunc(identity), cfg); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestHannSumsToHalf(t *testing.T) {
	w := hann(256)
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if math.Abs(sum-128) > 1e-9 {
		t.Fatalf("sum = %f, want 128", sum)
	}
	if w[0] != 0 {
		t.Fatalf("w[0] = %g", w[0])
	}
}

func BenchmarkMeasure(b *testing.B) {
	cfg := Config{SampleRate: 48000, FFTSize: 4096}
	for b.Loop() {
		if _, err := Measure(ProcessorFunc(identity), cfg); err != nil {
			b.Fatal(err)
		}
	}
}
