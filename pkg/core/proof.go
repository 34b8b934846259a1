package core

// ProofKind tags the layer a proof belongs to.
type ProofKind uint8

const (
	ProofKindBase ProofKind = iota + 1
	ProofKindRecursive
)

func (k ProofKind) String() string {
	switch k {
	case ProofKindBase:
		return "base_layer"
	case ProofKindRecursive:
		return "recursive_layer"
	default:
		return "unknown"
	}
}

// Proof is the tagged union over base-layer and recursive-layer proofs.
// Exactly one of Base or Recursive is set, matching Kind. A stage accepts
// a single kind; attaching the other kind to its jobs is a pipeline
// invariant violation, not a transient condition.
type Proof struct {
	Kind      ProofKind            `json:"kind"`
	Base      *BaseLayerProof      `json:"base,omitempty"`
	Recursive *RecursiveLayerProof `json:"recursive,omitempty"`
}

// BaseLayerProof is a proof over one base-layer circuit.
type BaseLayerProof struct {
	CircuitID uint8  `json:"circuit_id"`
	Payload   []byte `json:"payload"`
}

// RecursiveLayerProof is a proof over one recursion-layer circuit.
type RecursiveLayerProof struct {
	CircuitID uint8  `json:"circuit_id"`
	Payload   []byte `json:"payload"`
}

// WrapBase builds a base-layer tagged proof.
func WrapBase(p BaseLayerProof) Proof {
	return Proof{Kind: ProofKindBase, Base: &p}
}

// WrapRecursive builds a recursive-layer tagged proof.
func WrapRecursive(p RecursiveLayerProof) Proof {
	return Proof{Kind: ProofKindRecursive, Recursive: &p}
}

// VerificationKey identifies the verification key for a circuit. The
// commitment is opaque to the pipeline; it is threaded through to the
// witness-construction library unchanged.
type VerificationKey struct {
	CircuitID  uint8  `json:"circuit_id" yaml:"circuit_id"`
	Commitment string `json:"commitment" yaml:"commitment"`
}
