package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or any
// pair differs by more than eps.
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	d, err := MaxAbsDiff(got, want)
	if err != nil {
		t.Fatal(err)
	}
	if d > eps {
		i := firstDiff(got, want, eps)
		t.Fatalf("index %d: got %v, want %v (max diff %v > eps %v)", i, got[i], want[i], d, eps)
	}
}

// RequireFinite fails t if any sample is NaN or Inf.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireContinuous fails t if two neighbouring samples differ by more than
// maxStep. Gain ramps and model swaps must pass it to be click-free.
func RequireContinuous(t testing.TB, data []float64, maxStep float64) {
	t.Helper()
	for i := 1; i < len(data); i++ {
		if d := math.Abs(data[i] - data[i-1]); d > maxStep {
			t.Fatalf("index %d: jump %v from %v to %v exceeds %v", i, d, data[i-1], data[i], maxStep)
		}
	}
}

// MaxAbsDiff returns the largest absolute difference between a and b.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxDiff := 0.0
	for i := range a {
		maxDiff = math.Max(maxDiff, math.Abs(a[i]-b[i]))
	}
	return maxDiff, nil
}

func firstDiff(a, b []float64, eps float64) int {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return i
		}
	}
	return 0
}
