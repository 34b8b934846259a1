package leafagg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/provelabs/witnessgen/pkg/blob"
	"github.com/provelabs/witnessgen/pkg/core"
	"github.com/provelabs/witnessgen/pkg/harness"
	"github.com/provelabs/witnessgen/pkg/keys"
	"github.com/provelabs/witnessgen/pkg/observe"
)

// Job is a fully resolved unit of leaf-aggregation work. It is owned
// exclusively by the execution slot processing it and discarded after use.
type Job struct {
	CircuitID   uint8
	BlockNumber uint64
	Inputs      *core.ClosedFormInputBundle
	Proofs      []core.BaseLayerProof
	BaseVK      core.VerificationKey
	LeafParams  core.LeafParameters
}

// Generator is the leaf-aggregation stage coordinator.
type Generator struct {
	storage  core.Storage
	blobs    blob.Store
	keys     keys.Registry
	harness  harness.Harness
	leafID   keys.LeafIDMapper
	metrics  *observe.Metrics
	logger   *slog.Logger
	workerID string
}

// Option configures a Generator.
type Option func(*Generator)

// WithLeafIDMapper overrides the base-to-leaf circuit id mapping.
func WithLeafIDMapper(m keys.LeafIDMapper) Option {
	return func(g *Generator) {
		if m != nil {
			g.leafID = m
		}
	}
}

// WithMetrics sets the duration recorder for the prepare and save phases.
func WithMetrics(m *observe.Metrics) Option {
	return func(g *Generator) {
		if m != nil {
			g.metrics = m
		}
	}
}

// WithLogger sets the generator logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithWorkerID sets the identity used for store leases. Defaults to a
// random UUID per generator.
func WithWorkerID(id string) Option {
	return func(g *Generator) {
		if id != "" {
			g.workerID = id
		}
	}
}

// New creates a leaf-aggregation generator over the given collaborators.
// The store handles are shared by reference across workers; the generator
// never caches rows or blobs across jobs.
func New(storage core.Storage, blobs blob.Store, registry keys.Registry, h harness.Harness, opts ...Option) *Generator {
	g := &Generator{
		storage:  storage,
		blobs:    blobs,
		keys:     registry,
		harness:  h,
		leafID:   keys.DefaultLeafIDMapper,
		metrics:  observe.NewMetrics(),
		logger:   slog.Default(),
		workerID: uuid.New().String(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Name() string { return "leaf_aggregation_witness_generator" }

func (g *Generator) Round() core.AggregationRound { return core.RoundLeafAggregation }

// NextJob claims the next queued leaf-aggregation row and prepares it.
// A claim that cannot be prepared is reported with its id so the engine
// records the failure against the row.
func (g *Generator) NextJob(ctx context.Context) (uint32, *Job, bool, error) {
	metadata, err := g.storage.ClaimNextJob(ctx, core.RoundLeafAggregation, g.workerID)
	if err != nil {
		return 0, nil, false, fmt.Errorf("claim next job: %w", err)
	}
	if metadata == nil {
		return 0, nil, false, nil
	}

	g.logger.Info("claimed leaf aggregation job",
		"job_id", metadata.ID,
		"circuit_id", metadata.CircuitID,
		"block_number", metadata.BlockNumber,
	)

	job, err := g.prepare(ctx, metadata)
	if err != nil {
		return metadata.ID, nil, true, err
	}
	return metadata.ID, job, true, nil
}

// prepare resolves the job's input references into a runnable Job: the
// closed-form input bundle and proofs from the blob store, then keys and
// leaf parameters. Any missing input is terminal for the job; it means an
// upstream invariant was violated, not a transient condition.
func (g *Generator) prepare(ctx context.Context, metadata *core.WitnessJob) (*Job, error) {
	inputs, err := g.fetchClosedFormInputs(ctx, metadata)
	if err != nil {
		return nil, err
	}
	proofs, err := g.fetchBaseProofs(ctx, metadata)
	if err != nil {
		return nil, err
	}

	prepStart := time.Now()
	baseVK, err := g.keys.BaseLayerKey(metadata.CircuitID)
	if err != nil {
		return nil, err
	}
	leafCircuitID, err := g.leafID(metadata.CircuitID)
	if err != nil {
		return nil, fmt.Errorf("map circuit %d to leaf id: %w", metadata.CircuitID, err)
	}
	leafVK, err := g.keys.RecursiveLayerKey(leafCircuitID)
	if err != nil {
		return nil, err
	}
	params, err := g.harness.ComputeLeafParameters(metadata.CircuitID, baseVK, leafVK)
	if err != nil {
		return nil, &core.ComputationError{Err: err}
	}
	g.metrics.RecordPrepare(ctx, core.RoundLeafAggregation, time.Since(prepStart))

	return &Job{
		CircuitID:   metadata.CircuitID,
		BlockNumber: metadata.BlockNumber,
		Inputs:      inputs,
		Proofs:      proofs,
		BaseVK:      baseVK,
		LeafParams:  params,
	}, nil
}

func (g *Generator) fetchClosedFormInputs(ctx context.Context, metadata *core.WitnessJob) (*core.ClosedFormInputBundle, error) {
	key := blob.ClosedFormInputKey{
		BlockNumber: metadata.BlockNumber,
		CircuitID:   metadata.CircuitID,
	}
	data, err := g.blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, &core.MissingInputError{Key: key.ObjectPath(), Err: err}
		}
		return nil, fmt.Errorf("fetch closed form inputs: %w", err)
	}
	var inputs core.ClosedFormInputBundle
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("decode closed form inputs %s: %w", key.ObjectPath(), err)
	}
	return &inputs, nil
}

// fetchBaseProofs loads every referenced proof and asserts it is a
// base-layer proof. A recursive proof here means the wrong artifacts are
// attached to the job; that is a pipeline invariant violation.
func (g *Generator) fetchBaseProofs(ctx context.Context, metadata *core.WitnessJob) ([]core.BaseLayerProof, error) {
	proofs := make([]core.BaseLayerProof, 0, len(metadata.ProofIDs))
	for _, proofID := range metadata.ProofIDs {
		key := blob.ProofKey{ProofID: proofID}
		data, err := g.blobs.Get(ctx, key)
		if err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				return nil, &core.MissingInputError{Key: key.ObjectPath(), Err: err}
			}
			return nil, fmt.Errorf("fetch proof %d: %w", proofID, err)
		}
		var wrapper core.Proof
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("decode proof %s: %w", key.ObjectPath(), err)
		}

		switch wrapper.Kind {
		case core.ProofKindBase:
			proofs = append(proofs, *wrapper.Base)
		case core.ProofKindRecursive:
			return nil, &core.VariantMismatchError{
				JobID: metadata.ID,
				Got:   core.ProofKindRecursive,
				Want:  core.ProofKindBase,
			}
		default:
			return nil, fmt.Errorf("proof %d: unknown kind %d", proofID, wrapper.Kind)
		}
	}
	return proofs, nil
}

// Process invokes the witness harness. Runs inside an engine execution
// slot and never touches the relational store.
func (g *Generator) Process(ctx context.Context, job *Job) (*core.ArtifactBundle, error) {
	g.logger.Info("starting leaf witness generation",
		"circuit_id", job.CircuitID,
		"block_number", job.BlockNumber,
		"proofs", len(job.Proofs),
	)

	artifacts, err := g.harness.CreateLeafWitnesses(job.CircuitID, job.Inputs, job.Proofs, job.BaseVK, job.LeafParams)
	if err != nil {
		return nil, &core.ComputationError{Err: err}
	}

	g.logger.Info("leaf witness generation complete",
		"circuit_id", job.CircuitID,
		"block_number", job.BlockNumber,
		"aggregations", len(artifacts.Aggregations),
	)
	return artifacts, nil
}

// SaveResult persists the artifact bundle to the blob store and then
// advances pipeline state in one transaction. Artifacts are durable
// before any downstream row referencing them exists; retrying the whole
// call after a transient failure overwrites the same blobs and re-runs
// the same transaction.
func (g *Generator) SaveResult(ctx context.Context, jobID uint32, startedAt time.Time, artifacts *core.ArtifactBundle) error {
	leafCircuitID, err := g.leafID(artifacts.CircuitID)
	if err != nil {
		return fmt.Errorf("map circuit %d to leaf id: %w", artifacts.CircuitID, err)
	}

	refs, err := g.persist(ctx, leafCircuitID, artifacts)
	if err != nil {
		return err
	}
	return g.storage.AdvanceState(ctx, jobID, artifacts.BlockNumber, leafCircuitID, refs, time.Since(startedAt))
}

// SaveFailure records the terminal failure against the job row.
func (g *Generator) SaveFailure(ctx context.Context, jobID uint32, cause error) error {
	return g.storage.RecordFailure(ctx, jobID, g.workerID, cause.Error())
}
