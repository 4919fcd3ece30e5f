package nn

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

// GRU is a single gated recurrent unit layer with the reset gate applied
// after the recurrent product (Keras reset_after=True).
type GRU struct {
	in, hidden int

	wx []float64 // [3h][in]
	wh []float64 // [3h][h]
	bx []float64 // [3h]
	bh []float64 // [3h]

	h      []float64
	xgates []float64
	hgates []float64
}

// NewGRU returns a zero-weight GRU layer.
func NewGRU(in, hidden int) (*GRU, error) {
	if in <= 0 || hidden <= 0 {
		return nil, fmt.Errorf("gru dimensions must be > 0: in=%d hidden=%d", in, hidden)
	}
	g := 3 * hidden
	return &GRU{
		in:     in,
		hidden: hidden,
		wx:     make([]float64, g*in),
		wh:     make([]float64, g*hidden),
		bx:     make([]float64, g),
		bh:     make([]float64, g),
		h:      make([]float64, hidden),
		xgates: make([]float64, g),
		hgates: make([]float64, g),
	}, nil
}

// In returns the input width.
func (r *GRU) In() int { return r.in }

// Hidden returns the state width.
func (r *GRU) Hidden() int { return r.hidden }

// SetWeights loads Keras-layout weights: kernel [in][3h], recurrent
// [h][3h] and bias [2][3h] (input bias, recurrent bias).
func (r *GRU) SetWeights(kernel, recurrent, bias [][]float64) error {
	g := 3 * r.hidden
	if err := checkMatrix("gru kernel", kernel, r.in, g); err != nil {
		return err
	}
	if err := checkMatrix("gru recurrent kernel", recurrent, r.hidden, g); err != nil {
		return err
	}
	if err := checkMatrix("gru bias", bias, 2, g); err != nil {
		return err
	}

	transposeInto(r.wx, kernel, r.in)
	transposeInto(r.wh, recurrent, r.hidden)
	copy(r.bx, bias[0])
	copy(r.bh, bias[1])
	return nil
}

// Reset zeroes the hidden state.
func (r *GRU) Reset() { clear(r.h) }

// State returns the hidden state. It is overwritten by the next Forward.
func (r *GRU) State() []float64 { return r.h }

// Forward advances the layer by one step and returns the new hidden state.
func (r *GRU) Forward(x []float64) []float64 {
	in, hid := r.in, r.hidden
	x = x[:in]

	for j := range r.xgates {
		r.xgates[j] = r.bx[j] + vecmath.DotProduct(r.wx[j*in:(j+1)*in], x)
		r.hgates[j] = r.bh[j] + vecmath.DotProduct(r.wh[j*hid:(j+1)*hid], r.h)
	}

	for k := range hid {
		z := sigmoid(r.xgates[k] + r.hgates[k])
		rg := sigmoid(r.xgates[hid+k] + r.hgates[hid+k])
		cand := tanh(r.xgates[2*hid+k] + rg*r.hgates[2*hid+k])
		r.h[k] = z*r.h[k] + (1-z)*cand
	}
	return r.h
}
