package model

import (
	"testing"

	"github.com/cwbudde/algo-rtneural/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptionErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"in_shape": [null, null, 1], "layers": [`},
		{"not-object", `[1, 2, 3]`},
		{"missing-in-shape", `{"layers": [{"type": "lstm"}]}`},
		{"missing-layers", `{"in_shape": [null, null, 1]}`},
		{"untyped-layer", `{"in_shape": [null, null, 1], "layers": [{"shape": [null, 8]}]}`},
		{"validation-mismatch", `{"in_shape": [null, null, 1], "layers": [{"type": "gru"}],
			"validation": {"input": [0, 1], "output": [0]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDescription([]byte(tt.doc))
			require.ErrorIs(t, err, ErrDescriptionParse)
		})
	}
}

func TestParseDescriptionMetadata(t *testing.T) {
	data, err := testutil.ModelDoc{
		Cell: "gru", Inputs: 2, Hidden: 12, Skip: 1,
		InGainDB: -3, OutGainDB: 6, Rate: 44100,
		ValidationInput: []float64{0, 0.1},
	}.Marshal()
	require.NoError(t, err)

	d, err := ParseDescription(data)
	require.NoError(t, err)
	require.Equal(t, 2, d.Inputs())
	require.Equal(t, 12, d.Hidden())
	require.Equal(t, 1.0, d.Skip())
	require.Equal(t, -3.0, d.InGain)
	require.Equal(t, 6.0, d.OutGain)
	require.Equal(t, 44100.0, d.SampleRate)
	require.True(t, d.HasValidation())
	require.Len(t, d.Layers, 2)
}

func TestSkipDefaultsToZero(t *testing.T) {
	data, err := testutil.ModelDoc{Cell: "lstm", Inputs: 1, Hidden: 8, OmitSkip: true}.Marshal()
	require.NoError(t, err)

	d, err := ParseDescription(data)
	require.NoError(t, err)
	require.Nil(t, d.InSkip)
	require.Zero(t, d.Skip())
	require.False(t, d.HasValidation())
}
