package nn

import "fmt"

// Activation is an element-wise nonlinearity applied after a dense layer.
type Activation int

const (
	Linear Activation = iota
	Tanh
	Sigmoid
	ReLU
)

// ParseActivation maps a model-file activation name to an Activation.
// The empty string means Linear.
func ParseActivation(name string) (Activation, error) {
	switch name {
	case "", "linear":
		return Linear, nil
	case "tanh":
		return Tanh, nil
	case "sigmoid":
		return Sigmoid, nil
	case "relu":
		return ReLU, nil
	default:
		return Linear, fmt.Errorf("unknown activation %q", name)
	}
}

// String returns the model-file name of a.
func (a Activation) String() string {
	switch a {
	case Linear:
		return "linear"
	case Tanh:
		return "tanh"
	case Sigmoid:
		return "sigmoid"
	case ReLU:
		return "relu"
	default:
		return fmt.Sprintf("Activation(%d)", int(a))
	}
}

func (a Activation) apply(v []float64) {
	switch a {
	case Tanh:
		for i, x := range v {
			v[i] = tanh(x)
		}
	case Sigmoid:
		for i, x := range v {
			v[i] = sigmoid(x)
		}
	case ReLU:
		for i, x := range v {
			if x < 0 {
				v[i] = 0
			}
		}
	}
}
