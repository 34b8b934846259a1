package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/provelabs/witnessgen/pkg/core"
	"github.com/provelabs/witnessgen/pkg/security"
)

// claimLease is how long a claimed row stays invisible to other workers.
// Witness generation for a large batch can run for a long time; a stuck
// claim past this window is only ever returned to the queue by the
// explicit requeue policy, never implicitly.
const claimLease = 45 * time.Minute

// GormStorage implements core.Storage using GORM.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// DB exposes the underlying handle for process-root wiring.
func (s *GormStorage) DB() *gorm.DB { return s.db }

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&core.WitnessJob{},
		&core.ProverJob{},
		&core.AggregationPointer{},
	)
}

// EnqueueJob inserts a queued witness job. Used by the upstream round's
// advance and by seeding.
func (s *GormStorage) EnqueueJob(ctx context.Context, job *core.WitnessJob) error {
	if job.Status == "" {
		job.Status = core.StatusQueued
	}
	return s.db.WithContext(ctx).Create(job).Error
}

// ClaimNextJob atomically claims the oldest eligible queued row for the
// round. The select and the guarded update run in one transaction; the
// update re-checks the status so a row lost to a concurrent claimer is
// simply reported as no job this cycle.
func (s *GormStorage) ClaimNextJob(ctx context.Context, round core.AggregationRound, workerID string) (*core.WitnessJob, error) {
	var job core.WitnessJob
	now := time.Now()
	leaseUntil := now.Add(claimLease)
	claimed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("round = ?", round).
			Where("status = ?", core.StatusQueued).
			Where("(picked_until IS NULL OR picked_until < ?)", now).
			Order("created_at ASC, id ASC").
			First(&job)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return nil
			}
			return result.Error
		}

		update := tx.Model(&core.WitnessJob{}).
			Where("id = ? AND status = ?", job.ID, core.StatusQueued).
			Updates(map[string]any{
				"status":                core.StatusInProgress,
				"picked_by":             workerID,
				"picked_until":          leaseUntil,
				"processing_started_at": now,
				"attempt":               gorm.Expr("attempt + 1"),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			// Lost the race to another worker.
			return nil
		}
		claimed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, nil
	}

	job.Status = core.StatusInProgress
	job.PickedBy = workerID
	job.PickedUntil = &leaseUntil
	job.ProcessingStartedAt = &now
	job.Attempt++
	return &job, nil
}

// RecordFailure transitions the job to its terminal failed state with
// sanitized error text. Failed jobs stay queryable; nothing retries them.
func (s *GormStorage) RecordFailure(ctx context.Context, jobID uint32, workerID, errText string) error {
	result := s.db.WithContext(ctx).
		Model(&core.WitnessJob{}).
		Where("id = ? AND picked_by = ?", jobID, workerID).
		Updates(map[string]any{
			"status":       core.StatusFailed,
			"error":        security.SanitizeErrorMessage(errText),
			"picked_by":    "",
			"picked_until": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrJobNotOwned
	}
	return nil
}

// AdvanceState commits the fan-out of one successful witness job in a
// single transaction: downstream prover-job rows tagged with the next
// round, the fan-out pointer for the parent node-aggregation job, and the
// success mark. If any sub-step fails the whole transaction rolls back.
func (s *GormStorage) AdvanceState(ctx context.Context, jobID uint32, blockNumber uint64, circuitID uint8, refs core.BlobReferenceSet, elapsed time.Duration) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := make([]core.ProverJob, 0, len(refs.CircuitURLs))
		for _, cu := range refs.CircuitURLs {
			rows = append(rows, core.ProverJob{
				BlockNumber:  blockNumber,
				CircuitID:    cu.CircuitID,
				Round:        core.RoundLeafAggregation.Next(),
				RoundAttempt: 0,
				InputURL:     cu.URL,
				Status:       core.StatusQueued,
			})
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("insert downstream prover jobs: %w", err)
			}
		}

		pointer := core.AggregationPointer{
			BlockNumber:     blockNumber,
			CircuitID:       circuitID,
			DependentJobs:   len(refs.CircuitURLs),
			RoundAttempt:    0,
			AggregationsURL: refs.AggregationsURL,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "block_number"}, {Name: "circuit_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"dependent_jobs", "round_attempt", "aggregations_url", "updated_at",
			}),
		}).Create(&pointer).Error; err != nil {
			return fmt.Errorf("update fan-out pointer: %w", err)
		}

		mark := tx.Model(&core.WitnessJob{}).
			Where("id = ? AND status = ?", jobID, core.StatusInProgress).
			Updates(map[string]any{
				"status":        core.StatusSuccessful,
				"time_taken_ms": elapsed.Milliseconds(),
				"picked_by":     "",
				"picked_until":  nil,
			})
		if mark.Error != nil {
			return fmt.Errorf("mark job successful: %w", mark.Error)
		}
		if mark.RowsAffected == 0 {
			return fmt.Errorf("mark job successful: %w", core.ErrJobNotOwned)
		}
		return nil
	})
	if err != nil {
		return &core.StateAdvanceError{JobID: jobID, Err: err}
	}
	return nil
}

// RequeueStuck returns in-progress jobs whose lease expired longer than
// staleFor ago back to the queue. This is the optional liveness policy
// layered on top of the engine; the engine itself never retries.
func (s *GormStorage) RequeueStuck(ctx context.Context, staleFor time.Duration) (int64, error) {
	cutoff := time.Now().Add(-staleFor)
	result := s.db.WithContext(ctx).
		Model(&core.WitnessJob{}).
		Where("status = ?", core.StatusInProgress).
		Where("picked_until < ?", cutoff).
		Updates(map[string]any{
			"status":       core.StatusQueued,
			"picked_by":    "",
			"picked_until": nil,
		})
	return result.RowsAffected, result.Error
}

// JobByID retrieves a witness job row, or nil when absent.
func (s *GormStorage) JobByID(ctx context.Context, jobID uint32) (*core.WitnessJob, error) {
	var job core.WitnessJob
	err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FailedJobs lists terminally failed witness jobs with their error text.
func (s *GormStorage) FailedJobs(ctx context.Context, limit int) ([]*core.WitnessJob, error) {
	var jobs []*core.WitnessJob
	err := s.db.WithContext(ctx).
		Where("status = ?", core.StatusFailed).
		Order("updated_at DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// ProverJobsForBlock lists downstream prover jobs for a block and round.
func (s *GormStorage) ProverJobsForBlock(ctx context.Context, blockNumber uint64, round core.AggregationRound) ([]*core.ProverJob, error) {
	var jobs []*core.ProverJob
	err := s.db.WithContext(ctx).
		Where("block_number = ? AND round = ?", blockNumber, round).
		Order("id ASC").
		Find(&jobs).Error
	return jobs, err
}

// Pointer retrieves the fan-out pointer for (blockNumber, circuitID), or
// nil when absent.
func (s *GormStorage) Pointer(ctx context.Context, blockNumber uint64, circuitID uint8) (*core.AggregationPointer, error) {
	var p core.AggregationPointer
	err := s.db.WithContext(ctx).
		First(&p, "block_number = ? AND circuit_id = ?", blockNumber, circuitID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
