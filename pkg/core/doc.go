// Package core provides the domain models and interfaces for the
// witness-generation pipeline.
//
// This package contains:
//   - WitnessJob, ProverJob and AggregationPointer data models with GORM annotations
//   - The Storage interface defining the relational-store contract
//   - Proof, verification-key and artifact types shared across stages
//   - The error taxonomy for job processing
//
// Stage implementations live under pkg/leafagg; the generic claim/execute
// loop lives under pkg/engine.
package core
