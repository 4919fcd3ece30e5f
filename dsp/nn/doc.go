// Package nn evaluates the small recurrent networks used as amp models.
//
// A [Network] is one recurrent layer ([LSTM] or [GRU]), an optional dense
// layer with sigmoid activation, and a dense output layer. It consumes one
// input vector per sample and produces one scalar. All buffers are sized at
// construction so [Network.Forward] does not allocate.
//
// Weights are accepted in the Keras layout used by RTNeural model files:
// dense kernels are [in][out], recurrent kernels are [in][gates*hidden] and
// [hidden][gates*hidden]. LSTM gates are ordered i, f, c, o. GRU gates are
// ordered z, r, h and use separate input and recurrent biases.
//
// Build with the fastmath tag to evaluate sigmoid and tanh through
// algo-approx.
package nn
