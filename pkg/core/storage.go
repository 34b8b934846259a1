package core

import (
	"context"
	"time"
)

// Storage is the narrow relational-store contract consumed by stage
// coordinators. Any backend that can claim atomically and commit the
// multi-table advance in one transaction can satisfy it.
type Storage interface {
	// ClaimNextJob atomically claims the oldest eligible queued row for the
	// round and returns it, or (nil, nil) when no eligible row exists.
	// Concurrent callers never receive the same row.
	ClaimNextJob(ctx context.Context, round AggregationRound, workerID string) (*WitnessJob, error)

	// RecordFailure transitions the job to its terminal failed state with a
	// descriptive error. No automatic retry follows.
	RecordFailure(ctx context.Context, jobID uint32, workerID, errText string) error

	// AdvanceState runs one transaction that inserts the downstream prover
	// jobs, upserts the fan-out pointer for (blockNumber, circuitID), and
	// marks jobID successful with its elapsed duration. All-or-nothing.
	AdvanceState(ctx context.Context, jobID uint32, blockNumber uint64, circuitID uint8, refs BlobReferenceSet, elapsed time.Duration) error
}
