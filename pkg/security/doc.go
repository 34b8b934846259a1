// Package security provides sanitization and limits for values persisted
// by the pipeline.
package security
