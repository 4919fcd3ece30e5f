package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Description is the decoded form of a model file.
type Description struct {
	InShape    []*int      `json:"in_shape"`
	InSkip     *float64    `json:"in_skip,omitempty"`
	InGain     float64     `json:"in_gain,omitempty"`
	OutGain    float64     `json:"out_gain,omitempty"`
	SampleRate float64     `json:"samplerate,omitempty"`
	Layers     []Layer     `json:"layers"`
	Validation *Validation `json:"validation,omitempty"`
}

// Layer is one entry of the layer list.
type Layer struct {
	Type       string            `json:"type"`
	Activation string            `json:"activation"`
	Shape      []*int            `json:"shape"`
	Weights    []json.RawMessage `json:"weights"`
}

// Validation holds paired reference vectors for the self-test.
type Validation struct {
	Input  []float64 `json:"input"`
	Output []float64 `json:"output"`
}

// ParseDescription decodes a model file.
func ParseDescription(data []byte) (*Description, error) {
	var d Description
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDescriptionParse, err)
	}
	if len(d.InShape) == 0 {
		return nil, fmt.Errorf("%w: missing in_shape", ErrDescriptionParse)
	}
	if len(d.Layers) == 0 {
		return nil, fmt.Errorf("%w: missing layers", ErrDescriptionParse)
	}
	for i, l := range d.Layers {
		if l.Type == "" {
			return nil, fmt.Errorf("%w: layer %d has no type", ErrDescriptionParse, i)
		}
	}
	if v := d.Validation; v != nil && len(v.Input) != len(v.Output) {
		return nil, fmt.Errorf("%w: validation input has %d samples, output has %d",
			ErrDescriptionParse, len(v.Input), len(v.Output))
	}
	return &d, nil
}

// ReadDescription reads and decodes the model file at path.
func ReadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDescriptionParse, err)
	}
	return ParseDescription(data)
}

// Inputs returns the declared input arity, the last in_shape dimension.
func (d *Description) Inputs() int {
	return lastDim(d.InShape)
}

// Skip returns the in_skip value, 0 when absent.
func (d *Description) Skip() float64 {
	if d.InSkip == nil {
		return 0
	}
	return *d.InSkip
}

// Hidden returns the width of the recurrent layer.
func (d *Description) Hidden() int {
	if len(d.Layers) == 0 {
		return 0
	}
	return lastDim(d.Layers[0].Shape)
}

// HasValidation reports whether reference vectors are embedded.
func (d *Description) HasValidation() bool {
	return d.Validation != nil && len(d.Validation.Input) > 0
}

func lastDim(shape []*int) int {
	if len(shape) == 0 || shape[len(shape)-1] == nil {
		return 0
	}
	return *shape[len(shape)-1]
}

// decodeWeights unpacks a layer's weight list into dst, one target per
// entry. Targets are *[][]float64 or *[]float64.
func decodeWeights(l Layer, dst ...any) error {
	if len(l.Weights) != len(dst) {
		return fmt.Errorf("%w: %s layer has %d weight arrays, want %d",
			ErrDescriptionParse, l.Type, len(l.Weights), len(dst))
	}
	for i, raw := range l.Weights {
		if err := json.Unmarshal(raw, dst[i]); err != nil {
			return fmt.Errorf("%w: %s weights[%d]: %w", ErrDescriptionParse, l.Type, i, err)
		}
	}
	return nil
}
