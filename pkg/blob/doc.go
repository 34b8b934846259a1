// Package blob provides the object-store boundary for pipeline artifacts.
//
// The Store interface is deliberately narrow: Get and Put with composite
// keys, which is all the pipeline calls. The Badger implementation backs
// it with an embedded key-value store; any object-storage service can
// satisfy the same contract.
package blob
