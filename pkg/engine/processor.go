package engine

import (
	"context"
	"time"

	"github.com/provelabs/witnessgen/pkg/core"
)

// Processor is the stage-specific contract the engine drives. ID
// identifies a claimed job row, J is the prepared in-memory job, and A is
// the artifact bundle a successful run produces.
type Processor[ID comparable, J any, A any] interface {
	// Name identifies the stage in logs.
	Name() string

	// Round is the pipeline round this processor serves; it tags the
	// engine's duration measurements.
	Round() core.AggregationRound

	// NextJob claims one eligible row and resolves it into a prepared job.
	// ok reports whether a row was claimed. When ok is true and err is
	// non-nil, the claim succeeded but preparation failed; the engine
	// records the failure against id. When ok is false, id and job carry
	// no meaning.
	NextJob(ctx context.Context) (id ID, job J, ok bool, err error)

	// Process runs the stage computation. It may be CPU-bound and
	// long-running; the engine isolates it to an execution slot. It must
	// not touch the relational store.
	Process(ctx context.Context, job J) (A, error)

	// SaveResult persists artifacts and advances pipeline state. It must
	// be safe to retry wholesale: the engine re-invokes it on transient
	// store errors.
	SaveResult(ctx context.Context, id ID, startedAt time.Time, artifacts A) error

	// SaveFailure records cause against the job id and transitions it to
	// its terminal failed state.
	SaveFailure(ctx context.Context, id ID, cause error) error
}
