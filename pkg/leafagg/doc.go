// Package leafagg implements the leaf-aggregation stage: it folds a
// batch's base-layer proofs into the first layer of recursive circuits.
//
// The Generator satisfies engine.Processor. Claiming resolves a job row
// into a fully prepared Job (input bundle, proofs, keys, parameters);
// processing invokes the witness harness; saving persists the produced
// artifacts to the blob store and then advances pipeline state in one
// transaction, fanning out into node-aggregation prover jobs.
package leafagg
