// Package plugin is the host-facing processor: it runs the signal chain for
// each audio block and drives model swaps through a [swap.Channel].
//
// The chain is input lowpass, pre-gain, optional pre-EQ, model, DC blocker,
// optional post-EQ and master gain. [Plugin.Run] neither blocks nor
// allocates once [Plugin.Activate] has sized its buffers. While a model load
// is outstanding the master gain ramps to silence and back.
//
// State shared with other goroutines lives in [Shared]: the active model
// slot, the swap channel, the loading flag and the request sequence.
package plugin
