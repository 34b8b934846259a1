package keys

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/provelabs/witnessgen/pkg/core"
)

// ErrUnknownCircuit is returned when no key is registered for a circuit id.
var ErrUnknownCircuit = errors.New("keys: no verification key for circuit")

// Registry resolves verification keys by numeric circuit id. Lookups are
// deterministic: the same id always yields the same key.
type Registry interface {
	BaseLayerKey(circuitID uint8) (core.VerificationKey, error)
	RecursiveLayerKey(circuitID uint8) (core.VerificationKey, error)
}

// LeafIDMapper maps a base-layer circuit id to the recursive-layer id of
// its leaf circuit. The mapping is injected rather than hard-coded: the
// historical fixed offset is only an approximation of the real circuit
// set and callers may need their own table.
type LeafIDMapper func(baseCircuitID uint8) (uint8, error)

// leafIDOffset separates a base circuit id from its leaf counterpart in
// the current circuit set. TODO: replace with a per-circuit table once
// the recursion-layer ids stop tracking the base-layer ids.
const leafIDOffset = 2

// DefaultLeafIDMapper applies the fixed-offset mapping used by the
// current circuit set.
func DefaultLeafIDMapper(baseCircuitID uint8) (uint8, error) {
	return baseCircuitID + leafIDOffset, nil
}

// StaticRegistry is an in-memory Registry.
type StaticRegistry struct {
	base      map[uint8]core.VerificationKey
	recursive map[uint8]core.VerificationKey
}

// NewStaticRegistry builds a registry from explicit key lists.
func NewStaticRegistry(base, recursive []core.VerificationKey) *StaticRegistry {
	r := &StaticRegistry{
		base:      make(map[uint8]core.VerificationKey, len(base)),
		recursive: make(map[uint8]core.VerificationKey, len(recursive)),
	}
	for _, k := range base {
		r.base[k.CircuitID] = k
	}
	for _, k := range recursive {
		r.recursive[k.CircuitID] = k
	}
	return r
}

func (r *StaticRegistry) BaseLayerKey(circuitID uint8) (core.VerificationKey, error) {
	k, ok := r.base[circuitID]
	if !ok {
		return core.VerificationKey{}, fmt.Errorf("%w: base layer %d", ErrUnknownCircuit, circuitID)
	}
	return k, nil
}

func (r *StaticRegistry) RecursiveLayerKey(circuitID uint8) (core.VerificationKey, error) {
	k, ok := r.recursive[circuitID]
	if !ok {
		return core.VerificationKey{}, fmt.Errorf("%w: recursive layer %d", ErrUnknownCircuit, circuitID)
	}
	return k, nil
}

// registryFile is the on-disk YAML layout.
type registryFile struct {
	Base      []core.VerificationKey `yaml:"base"`
	Recursive []core.VerificationKey `yaml:"recursive"`
}

// LoadRegistry reads a YAML registry file:
//
//	base:
//	  - circuit_id: 3
//	    commitment: "0xabc..."
//	recursive:
//	  - circuit_id: 5
//	    commitment: "0xdef..."
func LoadRegistry(path string) (*StaticRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key registry: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse key registry %s: %w", path, err)
	}
	return NewStaticRegistry(file.Base, file.Recursive), nil
}

// DevRegistry returns a registry with synthetic keys for base circuits
// 1 through 13 and their leaf counterparts. Only for local runs and tests
// against the simulated harness.
func DevRegistry() *StaticRegistry {
	var base, recursive []core.VerificationKey
	for id := uint8(1); id <= 13; id++ {
		base = append(base, core.VerificationKey{
			CircuitID:  id,
			Commitment: fmt.Sprintf("dev-base-vk-%d", id),
		})
		recursive = append(recursive, core.VerificationKey{
			CircuitID:  id + leafIDOffset,
			Commitment: fmt.Sprintf("dev-leaf-vk-%d", id+leafIDOffset),
		})
	}
	return NewStaticRegistry(base, recursive)
}
