package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/provelabs/witnessgen/pkg/observe"
)

// Engine drives a Processor: it polls for claimable work and hands each
// prepared job to one of a fixed set of execution slots. Polling never
// waits on a running computation; a slow job only occupies its slot.
type Engine[ID comparable, J any, A any] struct {
	proc    Processor[ID, J, A]
	config  Config
	logger  *slog.Logger
	metrics *observe.Metrics
	wg      sync.WaitGroup
}

// claimedJob carries one claimed, prepared job from the poll loop to an
// execution slot. startedAt is the claim time and feeds the job's
// recorded elapsed duration.
type claimedJob[ID comparable, J any] struct {
	id        ID
	job       J
	startedAt time.Time
}

// New creates an engine for the given processor.
func New[ID comparable, J any, A any](proc Processor[ID, J, A], opts ...Option) *Engine[ID, J, A] {
	s := &engineSettings{
		config: Config{
			PollInterval: time.Second,
			Concurrency:  1,
		},
		logger:  slog.Default(),
		metrics: observe.NewMetrics(),
	}
	for _, opt := range opts {
		opt.applyEngine(s)
	}
	if s.config.SaveRetry == nil {
		cfg := DefaultRetryConfig()
		s.config.SaveRetry = &cfg
	}

	return &Engine[ID, J, A]{
		proc:    proc,
		config:  s.config,
		logger:  s.logger,
		metrics: s.metrics,
	}
}

// Start begins claiming and processing jobs. Blocks until the context is
// cancelled; cancellation stops acquisition of new jobs and waits for
// in-flight jobs to finish.
func (e *Engine[ID, J, A]) Start(ctx context.Context) error {
	jobs := make(chan claimedJob[ID, J], e.config.Concurrency)

	for i := 0; i < e.config.Concurrency; i++ {
		e.wg.Add(1)
		go e.runSlot(ctx, jobs)
	}

	e.logger.Info("engine started",
		"stage", e.proc.Name(),
		"round", e.proc.Round().String(),
		"concurrency", e.config.Concurrency,
		"poll_interval", e.config.PollInterval,
	)

	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(jobs)
			e.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			e.pollOnce(ctx, jobs)
		}
	}
}

// pollOnce claims at most one job and dispatches it to a slot.
func (e *Engine[ID, J, A]) pollOnce(ctx context.Context, jobs chan<- claimedJob[ID, J]) {
	fetchStart := time.Now()
	id, job, ok, err := e.proc.NextJob(ctx)
	if !ok {
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			e.logger.Error("failed to claim next job", "stage", e.proc.Name(), "error", err)
		}
		return
	}
	if err != nil {
		// The row is claimed but could not be prepared: a missing input or
		// mismatched proof variant. Terminal for this job.
		e.logger.Error("job preparation failed",
			"stage", e.proc.Name(), "job_id", id, "error", err)
		e.saveFailure(ctx, id, err)
		return
	}
	e.metrics.RecordBlobFetch(ctx, e.proc.Round(), time.Since(fetchStart))

	select {
	case jobs <- claimedJob[ID, J]{id: id, job: job, startedAt: fetchStart}:
	case <-ctx.Done():
	}
}

func (e *Engine[ID, J, A]) runSlot(ctx context.Context, jobs <-chan claimedJob[ID, J]) {
	defer e.wg.Done()
	for c := range jobs {
		e.runJob(ctx, c)
	}
}

func (e *Engine[ID, J, A]) runJob(ctx context.Context, c claimedJob[ID, J]) {
	e.logger.Info("job started",
		"stage", e.proc.Name(), "round", e.proc.Round().String(), "job_id", c.id)

	computeStart := time.Now()
	artifacts, err := e.process(ctx, c.job)
	if err != nil {
		e.logger.Error("job processing failed",
			"stage", e.proc.Name(), "job_id", c.id, "error", err)
		e.saveFailure(ctx, c.id, err)
		return
	}
	e.metrics.RecordCompute(ctx, e.proc.Round(), time.Since(computeStart))

	err = retryWithBackoff(ctx, *e.config.SaveRetry, func() error {
		return e.proc.SaveResult(ctx, c.id, c.startedAt, artifacts)
	})
	if err != nil {
		e.logger.Error("failed to save job result",
			"stage", e.proc.Name(), "job_id", c.id, "error", err)
		e.saveFailure(ctx, c.id, err)
		return
	}

	e.logger.Info("job completed",
		"stage", e.proc.Name(), "round", e.proc.Round().String(),
		"job_id", c.id, "duration", time.Since(c.startedAt))
}

// process invokes the stage computation, converting panics into job
// failures so one bad job never takes down the pool.
func (e *Engine[ID, J, A]) process(ctx context.Context, job J) (artifacts A, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.proc.Process(ctx, job)
}

// saveFailure records a terminal failure, retrying transient store errors.
func (e *Engine[ID, J, A]) saveFailure(ctx context.Context, id ID, cause error) {
	err := retryWithBackoff(ctx, *e.config.SaveRetry, func() error {
		return e.proc.SaveFailure(ctx, id, cause)
	})
	if err != nil {
		e.logger.Error("failed to record job failure",
			"stage", e.proc.Name(), "job_id", id, "error", err)
	}
}
