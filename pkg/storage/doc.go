// Package storage provides the GORM-backed relational store for the
// witness-generation pipeline.
//
// The store owns the durable job queue: claims are single atomic
// compare-and-swap updates so concurrent workers never receive the same
// row, and the state advance at the end of a successful job is one
// transaction covering downstream inserts, the fan-out pointer and the
// success mark.
package storage
