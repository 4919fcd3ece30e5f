package biquad

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Chain is a fixed-length cascade of sections with an input gain.
type Chain struct {
	sections []Section
	gain     float64
}

type chainConfig struct {
	gain float64
}

// ChainOption configures a Chain.
type ChainOption func(*chainConfig)

// WithGain sets the gain applied to the input before the first section.
func WithGain(g float64) ChainOption {
	return func(cfg *chainConfig) { cfg.gain = g }
}

// NewChain returns a cascade with one section per coefficient set, in order.
func NewChain(coeffs []Coefficients, opts ...ChainOption) *Chain {
	cfg := chainConfig{gain: 1}
	for _, o := range opts {
		o(&cfg)
	}

	c := &Chain{sections: make([]Section, len(coeffs)), gain: cfg.gain}
	for i := range coeffs {
		c.sections[i].Coefficients = coeffs[i]
	}
	return c
}

// Len returns the number of sections.
func (c *Chain) Len() int { return len(c.sections) }

// Gain returns the input gain.
func (c *Chain) Gain() float64 { return c.gain }

// SetGain changes the input gain.
func (c *Chain) SetGain(g float64) { c.gain = g }

// SetCoefficients redesigns section i in place. Its delay line is kept.
func (c *Chain) SetCoefficients(i int, coeffs Coefficients) {
	c.sections[i].Coefficients = coeffs
}

// Section returns section i.
func (c *Chain) Section(i int) *Section { return &c.sections[i] }

// ProcessSample runs x through the gain and every section.
func (c *Chain) ProcessSample(x float64) float64 {
	x *= c.gain
	for i := range c.sections {
		x = c.sections[i].ProcessSample(x)
	}
	return x
}

// ProcessBlock filters buf in place without allocating.
func (c *Chain) ProcessBlock(buf []float64) {
	if len(buf) == 0 {
		return
	}
	if c.gain != 1 {
		vecmath.ScaleBlockInPlace(buf, c.gain)
	}
	for i := range c.sections {
		c.sections[i].ProcessBlock(buf)
	}
}

// Reset clears every delay line.
func (c *Chain) Reset() {
	for i := range c.sections {
		c.sections[i].Reset()
	}
}

// MagnitudeDB is the gain of the whole cascade at fc (f/fs) in decibels.
func (c *Chain) MagnitudeDB(fc float64) float64 {
	db := 20 * math.Log10(math.Abs(c.gain))
	for i := range c.sections {
		db += c.sections[i].MagnitudeDB(fc)
	}
	return db
}
