// Package thd measures harmonic distortion of a block processor.
//
// [Measure] drives a processor with a bin-centred test tone, discards a
// settling period, and analyses the remainder with a Hann-windowed FFT.
// Levels are amplitude estimates derived from windowed bin power, so a
// harmonic's level is comparable to the fundamental's regardless of the
// FFT size.
package thd
