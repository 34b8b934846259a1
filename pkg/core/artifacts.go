package core

// ClosedFormInput is one compact, circuit-specific input record
// summarizing a slice of the batch's computation.
type ClosedFormInput struct {
	Subset uint64 `json:"subset"`
	Data   []byte `json:"data"`
}

// ClosedFormInputBundle is the full set of closed-form inputs for one
// (block, circuit) pair, fetched from the blob store as a single object.
// Immutable once fetched.
type ClosedFormInputBundle struct {
	CircuitID   uint8             `json:"circuit_id"`
	BlockNumber uint64            `json:"block_number"`
	SubsetCount int               `json:"subset_count"`
	Inputs      []ClosedFormInput `json:"inputs"`
}

// QueueSimulator is the intermediate recursion-queue state carried from a
// leaf aggregation into the node-aggregation round.
type QueueSimulator struct {
	State    []byte `json:"state"`
	NumItems uint32 `json:"num_items"`
}

// RecursiveCircuit is a next-layer circuit input produced for one subset.
type RecursiveCircuit struct {
	CircuitID uint8  `json:"circuit_id"`
	Witness   []byte `json:"witness"`
}

// Aggregation is one (subset, simulator state, next-layer circuit) triple.
// Each triple becomes exactly one downstream prover job.
type Aggregation struct {
	Subset    uint64           `json:"subset"`
	Simulator QueueSimulator   `json:"simulator"`
	Circuit   RecursiveCircuit `json:"circuit"`
}

// ArtifactBundle is the output of one leaf-aggregation computation. It is
// consumed by artifact persistence and discarded once the state-advance
// transaction commits.
type ArtifactBundle struct {
	CircuitID    uint8         `json:"circuit_id"`
	BlockNumber  uint64        `json:"block_number"`
	Aggregations []Aggregation `json:"aggregations"`
}

// CircuitURL pairs a downstream circuit id with the blob URL its prover
// input was written to.
type CircuitURL struct {
	CircuitID uint8  `json:"circuit_id"`
	URL       string `json:"url"`
}

// BlobReferenceSet is the payload of the state-advance transaction: one
// URL per downstream prover job plus the aggregated simulator-state blob
// consumed by the fan-in stage. It only exists between artifact
// persistence and the transaction; it is never stored itself.
type BlobReferenceSet struct {
	CircuitURLs     []CircuitURL
	AggregationsURL string
}

// LeafParameters are the precomputed recursion parameters for one leaf
// circuit, derived from the base and recursive verification keys.
type LeafParameters struct {
	CircuitID uint8  `json:"circuit_id"`
	Digest    string `json:"digest"`
}
