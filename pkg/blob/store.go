package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/provelabs/witnessgen/pkg/core"
)

// ErrNotFound is returned by Get when the object does not exist.
var ErrNotFound = errors.New("blob: object not found")

// Key identifies an object in the store. Implementations render the
// composite key into a stable object path; the path doubles as the URL
// returned by Put.
type Key interface {
	ObjectPath() string
}

// Store is the durable artifact storage contract.
type Store interface {
	// Get returns the stored bytes for key, or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)
	// Put stores data under key and returns the object's URL. Writing the
	// same key again overwrites the object.
	Put(ctx context.Context, key Key, data []byte) (string, error)
	Close() error
}

// ClosedFormInputKey locates the closed-form input bundle for one
// (block, circuit) pair.
type ClosedFormInputKey struct {
	BlockNumber uint64
	CircuitID   uint8
}

func (k ClosedFormInputKey) ObjectPath() string {
	return fmt.Sprintf("closed_form_inputs_%d_%d.json", k.BlockNumber, k.CircuitID)
}

// ProofKey locates one proof by its prover-job id.
type ProofKey struct {
	ProofID uint32
}

func (k ProofKey) ObjectPath() string {
	return fmt.Sprintf("proofs/proof_%d.json", k.ProofID)
}

// AggregationsKey locates the aggregated simulator-state blob consumed by
// the fan-in stage for (block, circuit) at the given depth.
type AggregationsKey struct {
	BlockNumber uint64
	CircuitID   uint8
	Depth       uint16
}

func (k AggregationsKey) ObjectPath() string {
	return fmt.Sprintf("aggregations_%d_%d_%d.json", k.BlockNumber, k.CircuitID, k.Depth)
}

// ProverInputKey locates the prover-input circuit blob for one downstream
// job.
type ProverInputKey struct {
	BlockNumber uint64
	CircuitID   uint8
	Round       core.AggregationRound
	Subset      uint64
}

func (k ProverInputKey) ObjectPath() string {
	return fmt.Sprintf("prover_inputs/%s_%d_%d_%d.json", k.Round, k.BlockNumber, k.CircuitID, k.Subset)
}
