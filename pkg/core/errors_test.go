package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingInputError_Unwrap(t *testing.T) {
	cause := errors.New("object not found")
	err := error(&MissingInputError{Key: "closed_form_inputs_42_3.json", Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "closed_form_inputs_42_3.json")

	var mi *MissingInputError
	require.ErrorAs(t, err, &mi)
	assert.Equal(t, "closed_form_inputs_42_3.json", mi.Key)
}

func TestVariantMismatchError_Message(t *testing.T) {
	err := &VariantMismatchError{JobID: 9, Got: ProofKindRecursive, Want: ProofKindBase}
	assert.Contains(t, err.Error(), "expected only base_layer proofs")
	assert.Contains(t, err.Error(), "recursive_layer")
}

func TestStateAdvanceError_Unwrap(t *testing.T) {
	cause := errors.New("constraint violation")
	err := error(&StateAdvanceError{JobID: 4, Err: cause})
	assert.ErrorIs(t, err, cause)

	var sa *StateAdvanceError
	require.ErrorAs(t, err, &sa)
	assert.Equal(t, uint32(4), sa.JobID)
}

func TestProofIDList_ValueScan(t *testing.T) {
	in := ProofIDList{10, 20, 30}
	v, err := in.Value()
	require.NoError(t, err)

	var out ProofIDList
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)

	require.NoError(t, out.Scan([]byte("[1,2]")))
	assert.Equal(t, ProofIDList{1, 2}, out)

	assert.Error(t, out.Scan(3.14))
}
