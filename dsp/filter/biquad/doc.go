// Package biquad provides the second-order IIR section used throughout the
// conditioning chain.
//
// A [Section] implements Direct Form II Transposed processing for one set of
// [Coefficients]. Coefficients are either assigned directly or designed in
// place with [Section.SetCoefficients], which takes a [Type] and a frequency
// normalized to the sample rate (f/fs, valid in (0, 0.5)).
//
// Block processing is dispatched to the best kernel registered for the
// running CPU, selected once on first use.
package biquad
