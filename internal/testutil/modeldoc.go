package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-rtneural/dsp/nn"
)

// ModelDoc describes a synthetic model file. Weights follow a deterministic
// pattern derived from Seed; a zero Seed gives an all-zero network whose
// output is the output bias.
type ModelDoc struct {
	Cell       string // "lstm" or "gru"
	Inputs     int
	Hidden     int
	Outputs    int // defaults to 1
	SigmoidMid bool

	Skip      int
	OmitSkip  bool
	InGainDB  float64
	OutGainDB float64
	Rate      float64
	Seed      float64
	OutBias   float64

	// ValidationInput is embedded with outputs computed from the weights,
	// unless ValidationOutput is set explicitly.
	ValidationInput  []float64
	ValidationOutput []float64
}

type modelLayer struct {
	Type       string `json:"type"`
	Activation string `json:"activation"`
	Shape      []*int `json:"shape"`
	Weights    []any  `json:"weights"`
}

func (d ModelDoc) gates() int {
	if d.Cell == "gru" {
		return 3
	}
	return 4
}

func (d ModelDoc) outputs() int {
	if d.Outputs <= 0 {
		return 1
	}
	return d.Outputs
}

func (d ModelDoc) matrix(rows, cols int, salt float64) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		if d.Seed == 0 {
			continue
		}
		for j := range m[i] {
			m[i][j] = (math.Mod(d.Seed*(float64(i*31+j*17)+salt), 1) - 0.5) * 0.5
		}
	}
	return m
}

func (d ModelDoc) recurrentWeights() (kernel, recurrent [][]float64, bias [][]float64) {
	g := d.gates() * d.Hidden
	kernel = d.matrix(d.Inputs, g, 1)
	recurrent = d.matrix(d.Hidden, g, 2)
	bias = d.matrix(2, g, 3)
	return kernel, recurrent, bias
}

func (d ModelDoc) midWeights() ([][]float64, []float64) {
	return d.matrix(d.Hidden, d.Hidden, 4), d.matrix(1, d.Hidden, 5)[0]
}

func (d ModelDoc) outWeights() ([][]float64, []float64) {
	bias := make([]float64, d.outputs())
	bias[0] = d.OutBias
	return d.matrix(d.Hidden, d.outputs(), 6), bias
}

func dim(n int) []*int { return []*int{nil, nil, &n} }

// Network builds the network the document describes.
func (d ModelDoc) Network() (*nn.Network, error) {
	cell, err := nn.ParseCell(d.Cell)
	if err != nil {
		return nil, err
	}
	n, err := nn.NewNetwork(nn.Shape{
		Cell: cell, Inputs: d.Inputs, Hidden: d.Hidden,
		SigmoidMid: d.SigmoidMid, Outputs: d.outputs(),
	})
	if err != nil {
		return nil, err
	}

	k, u, b := d.recurrentWeights()
	switch cell {
	case nn.CellLSTM:
		err = n.LSTM().SetWeights(k, u, b[0])
	case nn.CellGRU:
		err = n.GRU().SetWeights(k, u, b)
	}
	if err != nil {
		return nil, err
	}
	if d.SigmoidMid {
		mk, mb := d.midWeights()
		if err := n.Mid().SetWeights(mk, mb); err != nil {
			return nil, err
		}
	}
	outK, outB := d.outWeights()
	if err := n.Out().SetWeights(outK, outB); err != nil {
		return nil, err
	}
	return n, nil
}

// Reference runs in through a fresh network with neutral gains and zero
// conditioning, adding the dry input when Skip is 1.
func (d ModelDoc) Reference(in []float64) ([]float64, error) {
	n, err := d.Network()
	if err != nil {
		return nil, err
	}
	x := make([]float64, d.Inputs)
	out := make([]float64, len(in))
	for i, v := range in {
		x[0] = v
		out[i] = n.Forward(x)
		if d.Skip == 1 {
			out[i] += v
		}
	}
	return out, nil
}

// Marshal renders the document as model-file JSON.
func (d ModelDoc) Marshal() ([]byte, error) {
	k, u, b := d.recurrentWeights()
	rec := modelLayer{Type: d.Cell, Shape: dim(d.Hidden)}
	if d.Cell == "gru" {
		rec.Weights = []any{k, u, b}
	} else {
		rec.Weights = []any{k, u, b[0]}
	}

	layers := []modelLayer{rec}
	if d.SigmoidMid {
		mk, mb := d.midWeights()
		layers = append(layers, modelLayer{
			Type: "dense", Activation: "sigmoid", Shape: dim(d.Hidden), Weights: []any{mk, mb},
		})
	}
	outK, outB := d.outWeights()
	layers = append(layers, modelLayer{Type: "dense", Shape: dim(d.outputs()), Weights: []any{outK, outB}})

	doc := map[string]any{
		"in_shape": dim(d.Inputs),
		"in_gain":  d.InGainDB,
		"out_gain": d.OutGainDB,
		"layers":   layers,
	}
	if !d.OmitSkip {
		doc["in_skip"] = d.Skip
	}
	if d.Rate > 0 {
		doc["samplerate"] = d.Rate
	}
	if len(d.ValidationInput) > 0 {
		want := d.ValidationOutput
		if want == nil {
			var err error
			if want, err = d.Reference(d.ValidationInput); err != nil {
				return nil, err
			}
		}
		doc["validation"] = map[string]any{"input": d.ValidationInput, "output": want}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// WriteModel writes d as dir/name and returns the path.
func WriteModel(t testing.TB, dir, name string, d ModelDoc) string {
	t.Helper()
	data, err := d.Marshal()
	if err != nil {
		t.Fatalf("marshal model %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write model %s: %v", name, err)
	}
	return path
}
