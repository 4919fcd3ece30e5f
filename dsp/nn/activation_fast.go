//go:build fastmath

package nn

import (
	"github.com/meko-christian/algo-approx"
)

// Inputs are clamped where the approximation saturates anyway.
const expLimit = 40.0

func sigmoid(x float64) float64 {
	if x > expLimit {
		return 1
	}
	if x < -expLimit {
		return 0
	}
	return 1 / (1 + approx.FastExp(-x))
}

func tanh(x float64) float64 {
	return 2*sigmoid(2*x) - 1
}
