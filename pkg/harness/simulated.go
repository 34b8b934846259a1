package harness

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/provelabs/witnessgen/pkg/core"
)

// Simulated is a deterministic stand-in for the circuit library. Witness
// bytes are content hashes over the job's inputs, so identical inputs
// always yield byte-identical bundles. It produces exactly one
// aggregation triple per subset, matching the real library's shape.
type Simulated struct{}

// NewSimulated creates the simulated harness.
func NewSimulated() *Simulated {
	return &Simulated{}
}

func (s *Simulated) ComputeLeafParameters(circuitID uint8, baseVK, leafVK core.VerificationKey) (core.LeafParameters, error) {
	h := sha256.New()
	h.Write([]byte{circuitID})
	h.Write([]byte(baseVK.Commitment))
	h.Write([]byte(leafVK.Commitment))
	return core.LeafParameters{
		CircuitID: leafVK.CircuitID,
		Digest:    hex.EncodeToString(h.Sum(nil)),
	}, nil
}

func (s *Simulated) CreateLeafWitnesses(circuitID uint8, inputs *core.ClosedFormInputBundle, proofs []core.BaseLayerProof, baseVK core.VerificationKey, params core.LeafParameters) (*core.ArtifactBundle, error) {
	if inputs == nil {
		return nil, fmt.Errorf("harness: nil closed-form input bundle")
	}
	if inputs.SubsetCount < 0 {
		return nil, fmt.Errorf("harness: negative subset count %d", inputs.SubsetCount)
	}

	// Running chain over all inputs; each subset's simulator state is the
	// chain value after folding that subset's slice of the batch.
	chain := sha256.New()
	chain.Write([]byte{circuitID})
	chain.Write([]byte(baseVK.Commitment))
	chain.Write([]byte(params.Digest))
	for _, p := range proofs {
		chain.Write(p.Payload)
	}

	aggregations := make([]core.Aggregation, 0, inputs.SubsetCount)
	for subset := uint64(0); subset < uint64(inputs.SubsetCount); subset++ {
		var items uint32
		for _, in := range inputs.Inputs {
			if in.Subset == subset {
				chain.Write(in.Data)
				items++
			}
		}
		state := chain.Sum(nil)

		witness := sha256.New()
		witness.Write(state)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], subset)
		witness.Write(buf[:])

		aggregations = append(aggregations, core.Aggregation{
			Subset: subset,
			Simulator: core.QueueSimulator{
				State:    state,
				NumItems: items,
			},
			Circuit: core.RecursiveCircuit{
				CircuitID: params.CircuitID,
				Witness:   witness.Sum(nil),
			},
		})
	}

	return &core.ArtifactBundle{
		CircuitID:    circuitID,
		BlockNumber:  inputs.BlockNumber,
		Aggregations: aggregations,
	}, nil
}
