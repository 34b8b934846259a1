// Package engine provides the generic claim/execute loop shared by all
// pipeline stages.
//
// An Engine repeatedly polls its Processor for claimed, prepared jobs and
// hands each one to a dedicated execution slot, so a long computation
// never delays the next claim. Success persists artifacts and advances
// pipeline state through the Processor; failure records the error against
// the job id and moves on. The engine itself never retries a job.
package engine
