package harness

import (
	"github.com/provelabs/witnessgen/pkg/core"
)

// Harness is the external computation contract for the leaf round. Both
// operations are pure: no side effects, deterministic given identical
// inputs. CreateLeafWitnesses is computationally expensive and is always
// invoked from an engine execution slot.
type Harness interface {
	// ComputeLeafParameters derives the recursion parameters for one leaf
	// circuit from its base and recursive verification keys.
	ComputeLeafParameters(circuitID uint8, baseVK, leafVK core.VerificationKey) (core.LeafParameters, error)

	// CreateLeafWitnesses folds the batch's base proofs into one recursive
	// circuit per subset, producing the artifact bundle for persistence.
	CreateLeafWitnesses(circuitID uint8, inputs *core.ClosedFormInputBundle, proofs []core.BaseLayerProof, baseVK core.VerificationKey, params core.LeafParameters) (*core.ArtifactBundle, error)
}
