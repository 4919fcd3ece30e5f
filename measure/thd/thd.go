package thd

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultFFTSize     = 8192
	defaultFrequency   = 1000.0
	defaultAmplitude   = 0.5
	defaultLowerHz     = 20.0
	defaultCaptureBins = 2

	// hannENBW is the equivalent noise bandwidth of the Hann window in bins.
	hannENBW = 1.5
)

// Processor is anything that filters a block in place.
type Processor interface {
	ProcessBlock(buf []float64)
}

// ProcessorFunc adapts a function to [Processor].
type ProcessorFunc func(buf []float64)

// ProcessBlock calls f(buf).
func (f ProcessorFunc) ProcessBlock(buf []float64) { f(buf) }

// Config holds the measurement parameters. Zero fields take defaults.
type Config struct {
	SampleRate float64
	// FFTSize must be a power of two.
	FFTSize int
	// Frequency is the requested test tone; it is moved to the nearest bin.
	Frequency float64
	Amplitude float64
	// Settle is the number of processed samples discarded before analysis.
	// Defaults to FFTSize/2.
	Settle int
	// MaxHarmonics limits the harmonics considered. 0 means all below
	// RangeUpperFreq.
	MaxHarmonics   int
	CaptureBins    int
	RangeLowerFreq float64
	RangeUpperFreq float64
}

// Result holds the measured levels. Ratios are relative to the fundamental.
type Result struct {
	Fundamental float64 // Hz
	Level       float64 // fundamental amplitude

	THD    float64
	THDN   float64
	THDdB  float64
	THDNdB float64
	OddHD  float64
	EvenHD float64
	Noise  float64
	SINAD  float64

	// Harmonics[i] is the ratio of harmonic i+2.
	Harmonics []float64
}

func (c Config) withDefaults() (Config, error) {
	if c.SampleRate <= 0 || math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0) {
		return c, fmt.Errorf("thd: sample rate must be > 0 and finite: %f", c.SampleRate)
	}
	if c.FFTSize == 0 {
		c.FFTSize = defaultFFTSize
	}
	if c.FFTSize < 16 || c.FFTSize&(c.FFTSize-1) != 0 {
		return c, fmt.Errorf("thd: fft size must be a power of two >= 16: %d", c.FFTSize)
	}
	if c.Frequency <= 0 {
		c.Frequency = defaultFrequency
	}
	if c.Amplitude <= 0 {
		c.Amplitude = defaultAmplitude
	}
	if c.Settle <= 0 {
		c.Settle = c.FFTSize / 2
	}
	if c.CaptureBins <= 0 {
		c.CaptureBins = defaultCaptureBins
	}
	if c.MaxHarmonics < 0 {
		c.MaxHarmonics = 0
	}
	if c.RangeLowerFreq <= 0 {
		c.RangeLowerFreq = defaultLowerHz
	}
	nyquist := c.SampleRate / 2
	if c.RangeUpperFreq <= 0 || c.RangeUpperFreq > nyquist {
		c.RangeUpperFreq = nyquist
	}
	if c.RangeUpperFreq < c.RangeLowerFreq {
		return c, errors.New("thd: empty analysis range")
	}
	return c, nil
}

func (c Config) binHz() float64 { return c.SampleRate / float64(c.FFTSize) }

func (c Config) toneBin() int {
	bin := int(math.Round(c.Frequency / c.binHz()))
	return max(1, min(bin, c.FFTSize/2-1))
}

// Tone returns the test signal Measure feeds to a processor: Settle+FFTSize
// samples of a sine at the bin-centred frequency.
func Tone(cfg Config) ([]float64, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return tone(cfg), nil
}

func tone(cfg Config) []float64 {
	w := 2 * math.Pi * float64(cfg.toneBin()) / float64(cfg.FFTSize)
	buf := make([]float64, cfg.Settle+cfg.FFTSize)
	for i := range buf {
		buf[i] = cfg.Amplitude * math.Sin(w*float64(i))
	}
	return buf
}

// Measure runs the test tone through p and analyses its output.
func Measure(p Processor, cfg Config) (Result, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return Result{}, err
	}
	buf := tone(cfg)
	p.ProcessBlock(buf)
	return analyze(buf[cfg.Settle:], cfg)
}

// Analyze measures the distortion of signal around the configured test
// tone. Only the last FFTSize samples are used.
func Analyze(signal []float64, cfg Config) (Result, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return Result{}, err
	}
	if len(signal) < cfg.FFTSize {
		return Result{}, fmt.Errorf("thd: need %d samples, have %d", cfg.FFTSize, len(signal))
	}
	return analyze(signal[len(signal)-cfg.FFTSize:], cfg)
}

func analyze(frame []float64, cfg Config) (Result, error) {
	n := cfg.FFTSize

	windowed := make([]float64, n)
	vecmath.MulBlock(windowed, frame, hann(n))

	in := make([]complex128, n)
	for i, v := range windowed {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return Result{}, fmt.Errorf("thd: fft plan: %w", err)
	}
	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return Result{}, fmt.Errorf("thd: fft: %w", err)
	}

	bins := n/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for i := range bins {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}
	pow := make([]float64, bins)
	vecmath.Power(pow, re, im)

	return fromPower(pow, cfg), nil
}

// hann returns the periodic Hann window of length n.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// fromPower evaluates the metrics on a one-sided power spectrum.
func fromPower(pow []float64, cfg Config) Result {
	n := float64(cfg.FFTSize)
	binHz := cfg.binHz()
	maxBin := len(pow) - 1
	lower := clampInt(int(math.Ceil(cfg.RangeLowerFreq/binHz)), 1, maxBin)
	upper := clampInt(int(math.Floor(cfg.RangeUpperFreq/binHz)), lower, maxBin)
	fund := cfg.toneBin()
	capture := min(cfg.CaptureBins, fund/2)

	// Amplitude of a sine whose windowed power sums to p.
	amplitude := func(p float64) float64 {
		if p <= 0 {
			return 0
		}
		return math.Sqrt(p/hannENBW) * 4 / n
	}

	res := Result{Fundamental: float64(fund) * binHz}
	res.Level = amplitude(groupPower(pow, fund, capture))
	if res.Level == 0 {
		res.THDdB, res.THDNdB = math.Inf(-1), math.Inf(-1)
		return res
	}

	var harm2, odd2, even2 float64
	for k := 2; ; k++ {
		if cfg.MaxHarmonics > 0 && k-1 > cfg.MaxHarmonics {
			break
		}
		bin := k * fund
		if bin > upper {
			break
		}
		r := amplitude(groupPower(pow, bin, capture)) / res.Level
		res.Harmonics = append(res.Harmonics, r)
		harm2 += r * r
		if k%2 == 0 {
			even2 += r * r
		} else {
			odd2 += r * r
		}
	}

	var residual float64
	for i := lower; i <= upper; i++ {
		if i >= fund-capture && i <= fund+capture {
			continue
		}
		residual += pow[i]
	}
	thdn := amplitude(residual) / res.Level

	res.THD = math.Sqrt(harm2)
	res.OddHD = math.Sqrt(odd2)
	res.EvenHD = math.Sqrt(even2)
	res.THDN = math.Max(thdn, res.THD)
	res.Noise = math.Sqrt(math.Max(0, res.THDN*res.THDN-harm2))
	res.THDdB = ratioToDB(res.THD)
	res.THDNdB = ratioToDB(res.THDN)
	res.SINAD = -res.THDNdB
	return res
}

func groupPower(pow []float64, bin, capture int) float64 {
	lo := max(bin-capture, 0)
	hi := min(bin+capture, len(pow)-1)
	sum := 0.0
	for i := lo; i <= hi; i++ {
		sum += pow[i]
	}
	return sum
}

func ratioToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

func clampInt(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
