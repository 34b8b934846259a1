// Package keys resolves verification keys by numeric circuit id and owns
// the mapping from base-layer circuit ids to their leaf recursive-layer
// counterparts.
package keys
