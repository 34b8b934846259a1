package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapBase(t *testing.T) {
	p := WrapBase(BaseLayerProof{CircuitID: 3, Payload: []byte("proof")})
	assert.Equal(t, ProofKindBase, p.Kind)
	require.NotNil(t, p.Base)
	assert.Nil(t, p.Recursive)
	assert.Equal(t, uint8(3), p.Base.CircuitID)
}

func TestWrapRecursive(t *testing.T) {
	p := WrapRecursive(RecursiveLayerProof{CircuitID: 5})
	assert.Equal(t, ProofKindRecursive, p.Kind)
	require.NotNil(t, p.Recursive)
	assert.Nil(t, p.Base)
}

func TestProof_JSONRoundTrip(t *testing.T) {
	in := WrapBase(BaseLayerProof{CircuitID: 7, Payload: []byte{1, 2, 3}})
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Proof
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Kind, out.Kind)
	require.NotNil(t, out.Base)
	assert.Equal(t, in.Base.Payload, out.Base.Payload)
}

func TestProofKind_String(t *testing.T) {
	assert.Equal(t, "base_layer", ProofKindBase.String())
	assert.Equal(t, "recursive_layer", ProofKindRecursive.String())
	assert.Equal(t, "unknown", ProofKind(0).String())
}
