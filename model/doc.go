// Package model turns RTNeural-style JSON model descriptions into ready to
// run [Instance] values.
//
// Loading parses the description, matches it against the registered
// architecture set, loads weights into a [nn.Network], and either runs the
// embedded self-test or pre-rolls the network with silence. Loading
// allocates and performs file I/O and must not run on the audio goroutine.
//
// An Instance is immutable after Load except for its recurrent state and the
// targets of its conditioning smoothers.
package model
