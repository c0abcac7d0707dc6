// Package compile turns resolved scene signals into loaded bundles for one
// device. It applies per-item degradation: primitives the device cannot run
// natively become synthesized fade curves, envelopes are truncated to the
// device's control-point budget, and unresolvable audio references are
// dropped individually without failing the compile.
package compile
