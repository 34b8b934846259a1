package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provelabs/witnessgen/pkg/core"
)

func testBundle(subsets int) *core.ClosedFormInputBundle {
	inputs := make([]core.ClosedFormInput, 0, subsets)
	for i := 0; i < subsets; i++ {
		inputs = append(inputs, core.ClosedFormInput{
			Subset: uint64(i),
			Data:   []byte{byte(i), 0xaa},
		})
	}
	return &core.ClosedFormInputBundle{
		CircuitID:   3,
		BlockNumber: 42,
		SubsetCount: subsets,
		Inputs:      inputs,
	}
}

func TestSimulated_ComputeLeafParameters_Deterministic(t *testing.T) {
	s := NewSimulated()
	baseVK := core.VerificationKey{CircuitID: 3, Commitment: "base"}
	leafVK := core.VerificationKey{CircuitID: 5, Commitment: "leaf"}

	a, err := s.ComputeLeafParameters(3, baseVK, leafVK)
	require.NoError(t, err)
	b, err := s.ComputeLeafParameters(3, baseVK, leafVK)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, uint8(5), a.CircuitID, "parameters carry the leaf circuit id")
	assert.NotEmpty(t, a.Digest)

	c, err := s.ComputeLeafParameters(3, baseVK, core.VerificationKey{CircuitID: 5, Commitment: "other"})
	require.NoError(t, err)
	assert.NotEqual(t, a.Digest, c.Digest, "different keys yield different parameters")
}

func TestSimulated_CreateLeafWitnesses_OneTriplePerSubset(t *testing.T) {
	s := NewSimulated()
	baseVK := core.VerificationKey{CircuitID: 3, Commitment: "base"}
	params := core.LeafParameters{CircuitID: 5, Digest: "d"}
	proofs := []core.BaseLayerProof{{CircuitID: 3, Payload: []byte("p1")}}

	bundle, err := s.CreateLeafWitnesses(3, testBundle(2), proofs, baseVK, params)
	require.NoError(t, err)
	require.Len(t, bundle.Aggregations, 2)
	assert.Equal(t, uint8(3), bundle.CircuitID)
	assert.Equal(t, uint64(42), bundle.BlockNumber)

	for i, agg := range bundle.Aggregations {
		assert.Equal(t, uint64(i), agg.Subset)
		assert.Equal(t, uint8(5), agg.Circuit.CircuitID, "circuits carry the leaf id")
		assert.NotEmpty(t, agg.Circuit.Witness)
		assert.NotEmpty(t, agg.Simulator.State)
		assert.Equal(t, uint32(1), agg.Simulator.NumItems)
	}
	assert.NotEqual(t, bundle.Aggregations[0].Circuit.Witness, bundle.Aggregations[1].Circuit.Witness)
}

func TestSimulated_CreateLeafWitnesses_Deterministic(t *testing.T) {
	s := NewSimulated()
	baseVK := core.VerificationKey{CircuitID: 3, Commitment: "base"}
	params := core.LeafParameters{CircuitID: 5, Digest: "d"}
	proofs := []core.BaseLayerProof{{CircuitID: 3, Payload: []byte("p1")}}

	a, err := s.CreateLeafWitnesses(3, testBundle(3), proofs, baseVK, params)
	require.NoError(t, err)
	b, err := s.CreateLeafWitnesses(3, testBundle(3), proofs, baseVK, params)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := s.CreateLeafWitnesses(3, testBundle(3),
		[]core.BaseLayerProof{{CircuitID: 3, Payload: []byte("p2")}}, baseVK, params)
	require.NoError(t, err)
	assert.NotEqual(t, a.Aggregations[0].Circuit.Witness, c.Aggregations[0].Circuit.Witness)
}

func TestSimulated_CreateLeafWitnesses_NilBundle(t *testing.T) {
	s := NewSimulated()
	_, err := s.CreateLeafWitnesses(3, nil, nil, core.VerificationKey{}, core.LeafParameters{})
	assert.Error(t, err)
}
