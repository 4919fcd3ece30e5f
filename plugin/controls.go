package plugin

import "github.com/cwbudde/algo-rtneural/dsp/filter/tonestack"

// Property identifies what a control event changes.
type Property int

const (
	PropertyModelPath Property = iota + 1
	PropertyModelIndex
)

// Event is a host control event.
type Event struct {
	Property Property
	Path     string
	Index    int
}

// EQPosition places the tone stack around the model.
type EQPosition int

const (
	EQPost EQPosition = iota
	EQPre
)

// Controls are the per-block scalar controls.
type Controls struct {
	Enabled   bool
	NetBypass bool

	// InputLPF is the input lowpass amount in percent. 0 disables it.
	InputLPF  float64
	PreGainDB float64
	MasterDB  float64

	// Param1 and Param2 feed the model's conditioning inputs.
	Param1 float64
	Param2 float64

	EQBypass   bool
	EQPosition EQPosition
	Tone       tonestack.Settings

	DCBlockerOff bool

	// ModelIndex selects a bank entry. A change requests a load; a negative
	// value selects nothing.
	ModelIndex int
}

// DefaultControls returns an enabled, neutral control set.
func DefaultControls() Controls {
	return Controls{
		Enabled:    true,
		EQBypass:   true,
		EQPosition: EQPost,
		Tone:       tonestack.DefaultSettings(),
		ModelIndex: -1,
	}
}
