package leafagg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/provelabs/witnessgen/pkg/blob"
	"github.com/provelabs/witnessgen/pkg/core"
)

// aggregationsDepth is the recursion depth of the leaf round's output.
// Leaf aggregation always writes depth 0; deeper values belong to the
// fan-in stage.
const aggregationsDepth uint16 = 0

// persist writes every artifact the bundle produced: one prover-input
// blob per aggregation triple, tagged for the node-aggregation round and
// the mapped leaf circuit id, plus the combined simulator-state blob. It
// returns the reference set for the state-advance transaction. Writes are
// keyed deterministically so a retried persist overwrites the same
// objects.
func (g *Generator) persist(ctx context.Context, leafCircuitID uint8, artifacts *core.ArtifactBundle) (core.BlobReferenceSet, error) {
	saveStart := time.Now()

	refs := core.BlobReferenceSet{
		CircuitURLs: make([]core.CircuitURL, 0, len(artifacts.Aggregations)),
	}
	for _, agg := range artifacts.Aggregations {
		key := blob.ProverInputKey{
			BlockNumber: artifacts.BlockNumber,
			CircuitID:   leafCircuitID,
			Round:       core.RoundNodeAggregation,
			Subset:      agg.Subset,
		}
		data, err := json.Marshal(agg.Circuit)
		if err != nil {
			return core.BlobReferenceSet{}, &core.PersistenceError{Key: key.ObjectPath(), Err: err}
		}
		url, err := g.blobs.Put(ctx, key, data)
		if err != nil {
			return core.BlobReferenceSet{}, &core.PersistenceError{Key: key.ObjectPath(), Err: err}
		}
		refs.CircuitURLs = append(refs.CircuitURLs, core.CircuitURL{
			CircuitID: leafCircuitID,
			URL:       url,
		})
	}

	aggKey := blob.AggregationsKey{
		BlockNumber: artifacts.BlockNumber,
		CircuitID:   leafCircuitID,
		Depth:       aggregationsDepth,
	}
	data, err := json.Marshal(artifacts.Aggregations)
	if err != nil {
		return core.BlobReferenceSet{}, &core.PersistenceError{Key: aggKey.ObjectPath(), Err: err}
	}
	refs.AggregationsURL, err = g.blobs.Put(ctx, aggKey, data)
	if err != nil {
		return core.BlobReferenceSet{}, &core.PersistenceError{Key: aggKey.ObjectPath(), Err: err}
	}

	g.metrics.RecordBlobSave(ctx, core.RoundLeafAggregation, time.Since(saveStart))
	g.logger.Info("persisted leaf aggregation artifacts",
		"block_number", artifacts.BlockNumber,
		"circuit_id", artifacts.CircuitID,
		"prover_inputs", len(refs.CircuitURLs),
		"aggregations_url", refs.AggregationsURL,
	)
	return refs, nil
}

// SeedBundle writes a closed-form input bundle and its referenced proofs
// to the blob store. Used by tooling to stage work for a local pipeline.
func SeedBundle(ctx context.Context, store blob.Store, bundle *core.ClosedFormInputBundle, proofs map[uint32]core.Proof) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encode input bundle: %w", err)
	}
	key := blob.ClosedFormInputKey{BlockNumber: bundle.BlockNumber, CircuitID: bundle.CircuitID}
	if _, err := store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("write input bundle: %w", err)
	}
	for id, proof := range proofs {
		data, err := json.Marshal(proof)
		if err != nil {
			return fmt.Errorf("encode proof %d: %w", id, err)
		}
		if _, err := store.Put(ctx, blob.ProofKey{ProofID: id}, data); err != nil {
			return fmt.Errorf("write proof %d: %w", id, err)
		}
	}
	return nil
}
