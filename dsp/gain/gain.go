// Package gain applies smoothed gain ramps to audio blocks.
package gain

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rtneural/dsp/smooth"
	"github.com/cwbudde/algo-vecmath"
)

// DBToLinear converts decibels to a linear amplitude factor.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts a linear amplitude factor to decibels. Non-positive
// input returns -Inf.
func LinearToDB(g float64) float64 {
	if g <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(g)
}

// Stage multiplies blocks by the per-sample trajectory of a smoother.
type Stage struct {
	smoother smooth.Smoother
	ramp     []float64
}

// NewStage returns a stage driven by s, able to process blocks of up to
// maxBlock samples without allocating.
func NewStage(s smooth.Smoother, maxBlock int) (*Stage, error) {
	if s == nil {
		return nil, fmt.Errorf("gain stage requires a smoother")
	}
	if maxBlock <= 0 {
		return nil, fmt.Errorf("gain stage block size must be > 0: %d", maxBlock)
	}
	return &Stage{smoother: s, ramp: make([]float64, maxBlock)}, nil
}

// Resize grows the scratch ramp for blocks of up to maxBlock samples.
func (g *Stage) Resize(maxBlock int) {
	if maxBlock > len(g.ramp) {
		g.ramp = make([]float64, maxBlock)
	}
}

// SetTarget sets the linear gain the ramp moves toward.
func (g *Stage) SetTarget(v float64) { g.smoother.SetTargetValue(v) }

// SetTargetDB sets the target in decibels.
func (g *Stage) SetTargetDB(db float64) { g.smoother.SetTargetValue(DBToLinear(db)) }

// Clear jumps the ramp to its target.
func (g *Stage) Clear() { g.smoother.ClearToTargetValue() }

// Smoother returns the driving smoother.
func (g *Stage) Smoother() smooth.Smoother { return g.smoother }

// ProcessBlock multiplies buf in place. Blocks longer than the scratch ramp
// are processed in chunks.
func (g *Stage) ProcessBlock(buf []float64) {
	if len(buf) == 0 {
		return
	}

	if !g.smoother.IsSmoothing() {
		v := g.smoother.CurrentValue()
		if v == 1 {
			return
		}
		vecmath.ScaleBlock(buf, buf, v)
		return
	}

	for len(buf) > 0 {
		n := min(len(buf), len(g.ramp))
		ramp := g.ramp[:n]
		g.smoother.Fill(ramp)
		vecmath.MulBlockInPlace(buf[:n], ramp)
		buf = buf[n:]
	}
}
