package nn

import "fmt"

// Cell tags the recurrent layer type of a Network.
type Cell int

const (
	CellLSTM Cell = iota
	CellGRU
)

// String returns the model-file layer type of c.
func (c Cell) String() string {
	switch c {
	case CellLSTM:
		return "lstm"
	case CellGRU:
		return "gru"
	default:
		return fmt.Sprintf("Cell(%d)", int(c))
	}
}

// ParseCell maps a model-file layer type to a Cell.
func ParseCell(name string) (Cell, error) {
	switch name {
	case "lstm":
		return CellLSTM, nil
	case "gru":
		return CellGRU, nil
	default:
		return 0, fmt.Errorf("unknown recurrent layer %q", name)
	}
}

// Shape describes the layer stack of a Network.
type Shape struct {
	Cell       Cell
	Inputs     int
	Hidden     int
	SigmoidMid bool
	Outputs    int
}

// Network is a recurrent layer followed by an optional sigmoid dense layer
// and a linear dense output layer.
type Network struct {
	shape Shape

	lstm *LSTM
	gru  *GRU
	mid  *Dense
	out  *Dense
}

// NewNetwork returns a zero-weight network with the given shape.
func NewNetwork(s Shape) (*Network, error) {
	if s.Outputs <= 0 {
		s.Outputs = 1
	}

	n := &Network{shape: s}

	var err error
	switch s.Cell {
	case CellLSTM:
		n.lstm, err = NewLSTM(s.Inputs, s.Hidden)
	case CellGRU:
		n.gru, err = NewGRU(s.Inputs, s.Hidden)
	default:
		err = fmt.Errorf("unsupported cell %v", s.Cell)
	}
	if err != nil {
		return nil, err
	}

	if s.SigmoidMid {
		if n.mid, err = NewDense(s.Hidden, s.Hidden, Sigmoid); err != nil {
			return nil, err
		}
	}
	if n.out, err = NewDense(s.Hidden, s.Outputs, Linear); err != nil {
		return nil, err
	}
	return n, nil
}

// Shape returns the layer stack description.
func (n *Network) Shape() Shape { return n.shape }

// LSTM returns the recurrent layer when the cell is CellLSTM, else nil.
func (n *Network) LSTM() *LSTM { return n.lstm }

// GRU returns the recurrent layer when the cell is CellGRU, else nil.
func (n *Network) GRU() *GRU { return n.gru }

// Mid returns the sigmoid dense layer, or nil.
func (n *Network) Mid() *Dense { return n.mid }

// Out returns the output dense layer.
func (n *Network) Out() *Dense { return n.out }

// Reset zeroes all recurrent state.
func (n *Network) Reset() {
	switch n.shape.Cell {
	case CellLSTM:
		n.lstm.Reset()
	case CellGRU:
		n.gru.Reset()
	}
}

// Forward evaluates one step and returns the first output.
// len(x) must be at least Shape().Inputs.
func (n *Network) Forward(x []float64) float64 {
	var h []float64
	switch n.shape.Cell {
	case CellLSTM:
		h = n.lstm.Forward(x)
	case CellGRU:
		h = n.gru.Forward(x)
	}
	if n.mid != nil {
		h = n.mid.Forward(h)
	}
	return n.out.Forward(h)[0]
}
