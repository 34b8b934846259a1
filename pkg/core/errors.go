package core

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotOwned is returned when a store update matched no row,
	// meaning the job is not held by this worker anymore.
	ErrJobNotOwned = errors.New("witnessgen: job not owned by this worker")
)

// MissingInputError reports a referenced input artifact that is absent
// from the blob store. It indicates an upstream pipeline invariant
// violation and is never retried.
type MissingInputError struct {
	Key string
	Err error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input %s: %v", e.Key, e.Err)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// VariantMismatchError reports a proof of the wrong layer attached to a
// job. Fatal for the job: the pipeline attached the wrong artifacts.
type VariantMismatchError struct {
	JobID uint32
	Got   ProofKind
	Want  ProofKind
}

func (e *VariantMismatchError) Error() string {
	return fmt.Sprintf("job %d: expected only %s proofs, got %s", e.JobID, e.Want, e.Got)
}

// ComputationError reports a failure inside the witness-construction
// library. Fatal for the job.
type ComputationError struct {
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("witness computation failed: %v", e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// PersistenceError reports a failed blob write. Blobs already written by
// the same attempt stay orphaned; nothing will reference them because the
// state-advance transaction never runs.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist artifact %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// StateAdvanceError reports a rolled-back state-advance transaction. The
// store contains neither the downstream rows nor the success mark.
type StateAdvanceError struct {
	JobID uint32
	Err   error
}

func (e *StateAdvanceError) Error() string {
	return fmt.Sprintf("advance state for job %d: %v", e.JobID, e.Err)
}

func (e *StateAdvanceError) Unwrap() error { return e.Err }
