// Package smooth provides per-sample parameter smoothers.
//
// Two shapes are available. [Exponential] is a one-pole lowpass toward the
// target and suits gains that should react immediately but never step.
// [Linear] ramps to the target in a fixed number of samples and lands on it
// exactly, which suits mutes and fades that must reach silence.
//
// A target change in the middle of a ramp continues from the last emitted
// value, so the output is continuous across any sequence of targets.
package smooth
