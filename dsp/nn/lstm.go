package nn

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

// LSTM is a single long short-term memory layer.
type LSTM struct {
	in, hidden int

	wx []float64 // [4h][in]
	wh []float64 // [4h][h]
	b  []float64 // [4h]

	h, c  []float64
	gates []float64
}

// NewLSTM returns a zero-weight LSTM layer.
func NewLSTM(in, hidden int) (*LSTM, error) {
	if in <= 0 || hidden <= 0 {
		return nil, fmt.Errorf("lstm dimensions must be > 0: in=%d hidden=%d", in, hidden)
	}
	g := 4 * hidden
	return &LSTM{
		in:     in,
		hidden: hidden,
		wx:     make([]float64, g*in),
		wh:     make([]float64, g*hidden),
		b:      make([]float64, g),
		h:      make([]float64, hidden),
		c:      make([]float64, hidden),
		gates:  make([]float64, g),
	}, nil
}

// In returns the input width.
func (l *LSTM) In() int { return l.in }

// Hidden returns the state width.
func (l *LSTM) Hidden() int { return l.hidden }

// SetWeights loads Keras-layout weights: kernel [in][4h], recurrent
// [h][4h] and bias [4h].
func (l *LSTM) SetWeights(kernel, recurrent [][]float64, bias []float64) error {
	g := 4 * l.hidden
	if err := checkMatrix("lstm kernel", kernel, l.in, g); err != nil {
		return err
	}
	if err := checkMatrix("lstm recurrent kernel", recurrent, l.hidden, g); err != nil {
		return err
	}
	if len(bias) != g {
		return fmt.Errorf("lstm bias: got %d values, want %d", len(bias), g)
	}

	transposeInto(l.wx, kernel, l.in)
	transposeInto(l.wh, recurrent, l.hidden)
	copy(l.b, bias)
	return nil
}

// Reset zeroes the hidden and cell state.
func (l *LSTM) Reset() {
	clear(l.h)
	clear(l.c)
}

// State returns the hidden state. It is overwritten by the next Forward.
func (l *LSTM) State() []float64 { return l.h }

// Forward advances the layer by one step and returns the new hidden state.
func (l *LSTM) Forward(x []float64) []float64 {
	in, hid := l.in, l.hidden
	x = x[:in]

	for j := range l.gates {
		l.gates[j] = l.b[j] +
			vecmath.DotProduct(l.wx[j*in:(j+1)*in], x) +
			vecmath.DotProduct(l.wh[j*hid:(j+1)*hid], l.h)
	}

	ig := l.gates[0:hid]
	fg := l.gates[hid : 2*hid]
	cg := l.gates[2*hid : 3*hid]
	og := l.gates[3*hid : 4*hid]
	for k := range hid {
		c := sigmoid(fg[k])*l.c[k] + sigmoid(ig[k])*tanh(cg[k])
		l.c[k] = c
		l.h[k] = sigmoid(og[k]) * tanh(c)
	}
	return l.h
}
