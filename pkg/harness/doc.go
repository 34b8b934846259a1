// Package harness is the boundary to the witness-construction library.
//
// The pipeline treats the library as an opaque, deterministic function:
// given the same circuit, inputs, proofs and keys it must produce the
// same artifact bundle. The Simulated implementation stands in for the
// real circuit library in local runs and tests.
package harness
