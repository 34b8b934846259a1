package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provelabs/witnessgen/pkg/core"
)

func newLeafJob(block uint64, circuit uint8, proofIDs ...uint32) *core.WitnessJob {
	return &core.WitnessJob{
		Round:       core.RoundLeafAggregation,
		CircuitID:   circuit,
		BlockNumber: block,
		ProofIDs:    core.ProofIDList(proofIDs),
	}
}

func TestClaimNextJob_Empty(t *testing.T) {
	s := newTestStorage(t)

	job, err := s.ClaimNextJob(context.Background(), core.RoundLeafAggregation, "w1")
	require.NoError(t, err)
	assert.Nil(t, job, "no eligible row means no job, not an error")
}

func TestClaimNextJob_ClaimsOldestAndLeases(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := newLeafJob(42, 3, 1, 2)
	require.NoError(t, s.EnqueueJob(ctx, first))
	require.NoError(t, s.EnqueueJob(ctx, newLeafJob(43, 3, 5)))

	job, err := s.ClaimNextJob(ctx, core.RoundLeafAggregation, "w1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, first.ID, job.ID, "oldest row first")
	assert.Equal(t, core.StatusInProgress, job.Status)
	assert.Equal(t, "w1", job.PickedBy)
	assert.Equal(t, 1, job.Attempt)
	require.NotNil(t, job.PickedUntil)
	assert.Equal(t, core.ProofIDList{1, 2}, job.ProofIDs)

	// The claimed row is invisible to a second claimer.
	next, err := s.ClaimNextJob(ctx, core.RoundLeafAggregation, "w2")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.NotEqual(t, job.ID, next.ID)
}

func TestClaimNextJob_IgnoresOtherRounds(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	other := newLeafJob(42, 3)
	other.Round = core.RoundNodeAggregation
	require.NoError(t, s.EnqueueJob(ctx, other))

	job, err := s.ClaimNextJob(ctx, core.RoundLeafAggregation, "w1")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestClaimNextJob_Exclusive(t *testing.T) {
	db := openFileTestDB(t)
	s := NewGormStorage(db)
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	const jobCount = 8
	for i := 0; i < jobCount; i++ {
		require.NoError(t, s.EnqueueJob(ctx, newLeafJob(uint64(100+i), 3, uint32(i))))
	}

	var mu sync.Mutex
	seen := make(map[uint32]string)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(worker string) {
			defer wg.Done()
			for {
				job, err := s.ClaimNextJob(ctx, core.RoundLeafAggregation, worker)
				if err != nil || job == nil {
					return
				}
				mu.Lock()
				prev, dup := seen[job.ID]
				seen[job.ID] = worker
				mu.Unlock()
				assert.False(t, dup, "job %d claimed by both %s and %s", job.ID, prev, worker)
			}
		}("w" + string(rune('0'+w)))
	}
	wg.Wait()

	assert.Len(t, seen, jobCount, "every job claimed exactly once")
}

func TestRecordFailure(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnqueueJob(ctx, newLeafJob(42, 3, 1)))
	job, err := s.ClaimNextJob(ctx, core.RoundLeafAggregation, "w1")
	require.NoError(t, err)
	require.NotNil(t, job)

	require.NoError(t, s.RecordFailure(ctx, job.ID, "w1", "missing input closed_form_inputs_42_3.json"))

	stored, err := s.JobByID(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, core.StatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "closed_form_inputs_42_3.json")
	assert.Nil(t, stored.PickedUntil)

	// Terminal: the failed row is not claimable again.
	next, err := s.ClaimNextJob(ctx, core.RoundLeafAggregation, "w2")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestRecordFailure_NotOwned(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnqueueJob(ctx, newLeafJob(42, 3)))
	job, err := s.ClaimNextJob(ctx, core.RoundLeafAggregation, "w1")
	require.NoError(t, err)
	require.NotNil(t, job)

	err = s.RecordFailure(ctx, job.ID, "w2", "boom")
	assert.ErrorIs(t, err, core.ErrJobNotOwned)
}

func TestAdvanceState_CreatesRowsPointerAndSuccess(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnqueueJob(ctx, newLeafJob(42, 3, 1, 2)))
	job, err := s.ClaimNextJob(ctx, core.RoundLeafAggregation, "w1")
	require.NoError(t, err)
	require.NotNil(t, job)

	refs := core.BlobReferenceSet{
		CircuitURLs: []core.CircuitURL{
			{CircuitID: 5, URL: "prover_inputs/node_aggregation_42_5_0.json"},
			{CircuitID: 5, URL: "prover_inputs/node_aggregation_42_5_1.json"},
		},
		AggregationsURL: "aggregations_42_5_0.json",
	}
	require.NoError(t, s.AdvanceState(ctx, job.ID, 42, 5, refs, 1500*time.Millisecond))

	rows, err := s.ProverJobsForBlock(ctx, 42, core.RoundNodeAggregation)
	require.NoError(t, err)
	require.Len(t, rows, 2, "one downstream row per circuit URL")
	for i, row := range rows {
		assert.Equal(t, core.RoundNodeAggregation, row.Round, "downstream rows carry the next round")
		assert.Equal(t, 0, row.RoundAttempt)
		assert.Equal(t, refs.CircuitURLs[i].URL, row.InputURL)
		assert.Equal(t, core.StatusQueued, row.Status)
	}

	pointer, err := s.Pointer(ctx, 42, 5)
	require.NoError(t, err)
	require.NotNil(t, pointer)
	assert.Equal(t, 2, pointer.DependentJobs)
	assert.Equal(t, "aggregations_42_5_0.json", pointer.AggregationsURL)

	stored, err := s.JobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusSuccessful, stored.Status)
	assert.Equal(t, int64(1500), stored.TimeTakenMs)
}

func TestAdvanceState_UpsertsPointer(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, s.EnqueueJob(ctx, newLeafJob(42, 3)))
		job, err := s.ClaimNextJob(ctx, core.RoundLeafAggregation, "w1")
		require.NoError(t, err)
		require.NotNil(t, job)

		refs := core.BlobReferenceSet{
			CircuitURLs:     []core.CircuitURL{{CircuitID: 5, URL: "u"}},
			AggregationsURL: "agg",
		}
		require.NoError(t, s.AdvanceState(ctx, job.ID, 42, 5, refs, time.Second))
	}

	pointer, err := s.Pointer(ctx, 42, 5)
	require.NoError(t, err)
	require.NotNil(t, pointer)
	assert.Equal(t, 1, pointer.DependentJobs, "second advance overwrote the pointer")
}

func TestAdvanceState_Atomicity(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// Job id 999 does not exist, so the success mark matches no row and
	// the whole transaction must roll back.
	refs := core.BlobReferenceSet{
		CircuitURLs:     []core.CircuitURL{{CircuitID: 5, URL: "u1"}, {CircuitID: 5, URL: "u2"}},
		AggregationsURL: "agg",
	}
	err := s.AdvanceState(ctx, 999, 42, 5, refs, time.Second)
	require.Error(t, err)

	var sa *core.StateAdvanceError
	require.ErrorAs(t, err, &sa)
	assert.Equal(t, uint32(999), sa.JobID)

	rows, err := s.ProverJobsForBlock(ctx, 42, core.RoundNodeAggregation)
	require.NoError(t, err)
	assert.Empty(t, rows, "no downstream rows after rollback")

	pointer, err := s.Pointer(ctx, 42, 5)
	require.NoError(t, err)
	assert.Nil(t, pointer, "no pointer after rollback")
}

func TestRequeueStuck(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnqueueJob(ctx, newLeafJob(42, 3)))
	job, err := s.ClaimNextJob(ctx, core.RoundLeafAggregation, "w1")
	require.NoError(t, err)
	require.NotNil(t, job)

	// Lease still fresh: nothing to requeue.
	n, err := s.RequeueStuck(ctx, time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Age the lease far past the cutoff.
	expired := time.Now().Add(-2 * time.Hour)
	require.NoError(t, s.DB().Model(&core.WitnessJob{}).
		Where("id = ?", job.ID).
		Update("picked_until", expired).Error)

	n, err = s.RequeueStuck(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	reclaimed, err := s.ClaimNextJob(ctx, core.RoundLeafAggregation, "w2")
	require.NoError(t, err)
	require.NotNil(t, reclaimed)
	assert.Equal(t, job.ID, reclaimed.ID)
	assert.Equal(t, 2, reclaimed.Attempt)
}

func TestFailedJobs(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnqueueJob(ctx, newLeafJob(42, 3)))
	job, err := s.ClaimNextJob(ctx, core.RoundLeafAggregation, "w1")
	require.NoError(t, err)
	require.NotNil(t, job)
	require.NoError(t, s.RecordFailure(ctx, job.ID, "w1", "boom"))

	failed, err := s.FailedJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].Error)
}
