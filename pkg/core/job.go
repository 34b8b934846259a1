package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus represents the persisted state of a job row.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusInProgress JobStatus = "in_progress"
	StatusSuccessful JobStatus = "successful"
	StatusFailed     JobStatus = "failed"
)

// ProofIDList is a list of upstream proof ids, stored as a JSON array column.
type ProofIDList []uint32

func (p ProofIDList) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *ProofIDList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("core: cannot scan %T into ProofIDList", src)
	}
}

// WitnessJob is the persisted descriptor of claimable witness-generation
// work. Rows are created by the upstream round's state-advance transaction
// and consumed exactly once by a successful claim.
type WitnessJob struct {
	ID          uint32           `gorm:"primaryKey;autoIncrement"`
	Round       AggregationRound `gorm:"index:idx_witness_jobs_claim;not null"`
	CircuitID   uint8            `gorm:"not null"`
	BlockNumber uint64           `gorm:"index;not null"`
	ProofIDs    ProofIDList      `gorm:"type:text"`

	Status      JobStatus  `gorm:"index:idx_witness_jobs_claim;size:20;default:'queued'"`
	Attempt     int        `gorm:"default:0"`
	Error       string     `gorm:"type:text"`
	PickedBy    string     `gorm:"size:64"`
	PickedUntil *time.Time `gorm:"index"`

	ProcessingStartedAt *time.Time
	TimeTakenMs         int64
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// ProverJob is a downstream prover job row created when a witness job
// advances. Each row references a prover-input blob written before the
// creating transaction committed.
type ProverJob struct {
	ID           uint32           `gorm:"primaryKey;autoIncrement"`
	BlockNumber  uint64           `gorm:"index:idx_prover_jobs_block;not null"`
	CircuitID    uint8            `gorm:"not null"`
	Round        AggregationRound `gorm:"index:idx_prover_jobs_block;not null"`
	RoundAttempt int              `gorm:"default:0"`
	InputURL     string           `gorm:"size:512;not null"`
	Status       JobStatus        `gorm:"index;size:20;default:'queued'"`
	CreatedAt    time.Time        `gorm:"autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime"`
}

// AggregationPointer is the per-parent fan-out record for the node
// aggregation round: how many downstream prover jobs must complete before
// the node job for (block, circuit) can run, and where the aggregated
// simulator state lives. Updates are serialized through the store's
// transaction isolation; it is the only cross-job shared mutable row.
type AggregationPointer struct {
	BlockNumber     uint64    `gorm:"primaryKey;autoIncrement:false"`
	CircuitID       uint8     `gorm:"primaryKey"`
	DependentJobs   int       `gorm:"not null"`
	RoundAttempt    int       `gorm:"default:0"`
	AggregationsURL string    `gorm:"size:512"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}
