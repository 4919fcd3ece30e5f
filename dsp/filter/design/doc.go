// Package design wraps the normalized biquad designers with sample-rate
// aware helpers and provides the fixed DC blocker used after the model.
//
// Frequencies here are in Hz. A frequency at or above Nyquist, or a
// non-positive sample rate, yields a pass-through section.
package design
