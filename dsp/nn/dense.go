package nn

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

// Dense is a fully connected layer y = act(W*x + b).
type Dense struct {
	in, out int
	act     Activation

	w []float64 // [out][in], row-major
	b []float64
	y []float64
}

// NewDense returns a zero-weight dense layer.
func NewDense(in, out int, act Activation) (*Dense, error) {
	if in <= 0 || out <= 0 {
		return nil, fmt.Errorf("dense dimensions must be > 0: %dx%d", in, out)
	}
	return &Dense{
		in:  in,
		out: out,
		act: act,
		w:   make([]float64, in*out),
		b:   make([]float64, out),
		y:   make([]float64, out),
	}, nil
}

// In returns the input width.
func (d *Dense) In() int { return d.in }

// Out returns the output width.
func (d *Dense) Out() int { return d.out }

// Activation returns the output nonlinearity.
func (d *Dense) Activation() Activation { return d.act }

// SetWeights loads a Keras-layout kernel [in][out] and bias [out].
func (d *Dense) SetWeights(kernel [][]float64, bias []float64) error {
	if err := checkMatrix("dense kernel", kernel, d.in, d.out); err != nil {
		return err
	}
	if len(bias) != d.out {
		return fmt.Errorf("dense bias: got %d values, want %d", len(bias), d.out)
	}

	transposeInto(d.w, kernel, d.in)
	copy(d.b, bias)
	return nil
}

// Forward evaluates the layer. The returned slice is owned by d and is
// overwritten by the next call.
func (d *Dense) Forward(x []float64) []float64 {
	x = x[:d.in]
	for j := range d.y {
		d.y[j] = d.b[j] + vecmath.DotProduct(d.w[j*d.in:(j+1)*d.in], x)
	}
	d.act.apply(d.y)
	return d.y
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("%s: got %d rows, want %d", name, len(m), rows)
	}
	for i, row := range m {
		if len(row) != cols {
			return fmt.Errorf("%s: row %d has %d columns, want %d", name, i, len(row), cols)
		}
	}
	return nil
}

// transposeInto stores a Keras [rows][cols] matrix as [cols][rows] in dst.
func transposeInto(dst []float64, m [][]float64, rows int) {
	for i, row := range m {
		for j, v := range row {
			dst[j*rows+i] = v
		}
	}
}
