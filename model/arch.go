package model

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/cwbudde/algo-rtneural/dsp/nn"
)

// MaxInputs is the largest supported input arity: the audio sample plus two
// conditioning parameters.
const MaxInputs = 3

// HiddenSizes lists the registered recurrent widths.
var HiddenSizes = []int{8, 12, 16, 20, 24, 32, 40}

// Arch identifies one registered network variant.
type Arch struct {
	Cell       nn.Cell
	Hidden     int
	Inputs     int
	SigmoidMid bool
}

// String returns a compact name such as "lstm-16x1" or "gru-8x2-sigmoid".
func (a Arch) String() string {
	s := fmt.Sprintf("%s-%dx%d", a.Cell, a.Hidden, a.Inputs)
	if a.SigmoidMid {
		s += "-sigmoid"
	}
	return s
}

// Params returns the number of conditioning inputs.
func (a Arch) Params() int { return a.Inputs - 1 }

var registry = func() map[Arch]struct{} {
	m := make(map[Arch]struct{})
	for _, cell := range []nn.Cell{nn.CellLSTM, nn.CellGRU} {
		for _, hidden := range HiddenSizes {
			for inputs := 1; inputs <= MaxInputs; inputs++ {
				m[Arch{Cell: cell, Hidden: hidden, Inputs: inputs}] = struct{}{}
				m[Arch{Cell: cell, Hidden: hidden, Inputs: inputs, SigmoidMid: true}] = struct{}{}
			}
		}
	}
	return m
}()

// Supported reports whether a is registered.
func Supported(a Arch) bool {
	_, ok := registry[a]
	return ok
}

// Architectures returns every registered variant in a stable order.
func Architectures() []Arch {
	out := make([]Arch, 0, len(registry))
	for a := range registry {
		out = append(out, a)
	}
	slices.SortFunc(out, func(x, y Arch) int {
		if c := cmp.Compare(x.Cell, y.Cell); c != 0 {
			return c
		}
		if c := cmp.Compare(x.Hidden, y.Hidden); c != 0 {
			return c
		}
		if c := cmp.Compare(x.Inputs, y.Inputs); c != 0 {
			return c
		}
		switch {
		case x.SigmoidMid == y.SigmoidMid:
			return 0
		case y.SigmoidMid:
			return -1
		default:
			return 1
		}
	})
	return out
}

// MatchArch derives the architecture of d and checks it is registered.
func MatchArch(d *Description) (Arch, error) {
	inputs := d.Inputs()
	if inputs < 1 || inputs > MaxInputs {
		return Arch{}, fmt.Errorf("%w: input arity %d not in [1, %d]", ErrUnsupportedArchitecture, inputs, MaxInputs)
	}
	if skip := d.Skip(); skip != 0 && skip != 1 {
		return Arch{}, fmt.Errorf("%w: in_skip %v not in {0, 1}", ErrUnsupportedArchitecture, skip)
	}

	var a Arch
	a.Inputs = inputs

	cell, err := nn.ParseCell(d.Layers[0].Type)
	if err != nil {
		return Arch{}, fmt.Errorf("%w: %w", ErrUnsupportedArchitecture, err)
	}
	a.Cell = cell
	a.Hidden = d.Hidden()

	switch len(d.Layers) {
	case 2:
	case 3:
		mid := d.Layers[1]
		if mid.Type != "dense" || mid.Activation != "sigmoid" || lastDim(mid.Shape) != a.Hidden {
			return Arch{}, fmt.Errorf("%w: middle layer must be a %d-wide sigmoid dense layer",
				ErrUnsupportedArchitecture, a.Hidden)
		}
		a.SigmoidMid = true
	default:
		return Arch{}, fmt.Errorf("%w: %d layers", ErrUnsupportedArchitecture, len(d.Layers))
	}

	out := d.Layers[len(d.Layers)-1]
	act, err := nn.ParseActivation(out.Activation)
	if out.Type != "dense" || err != nil || act != nn.Linear {
		return Arch{}, fmt.Errorf("%w: output layer must be a linear dense layer", ErrUnsupportedArchitecture)
	}
	if n := lastDim(out.Shape); n != 1 && n != inputs {
		return Arch{}, fmt.Errorf("%w: output width %d", ErrUnsupportedArchitecture, n)
	}

	if !Supported(a) {
		return Arch{}, fmt.Errorf("%w: %s", ErrUnsupportedArchitecture, a)
	}
	return a, nil
}
