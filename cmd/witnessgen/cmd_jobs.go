package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/provelabs/witnessgen/pkg/config"
	"github.com/provelabs/witnessgen/pkg/core"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect witness job state",
}

var jobsFailedLimit int

var jobsFailedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List terminally failed jobs with their error text",
	RunE:  runJobsFailed,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one witness job row",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

var jobsFanoutCmd = &cobra.Command{
	Use:   "fanout <block>",
	Short: "Show downstream prover jobs and pointers for a block",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsFanout,
}

func init() {
	jobsFailedCmd.Flags().IntVar(&jobsFailedLimit, "limit", 20, "Maximum rows to list")
	jobsCmd.AddCommand(jobsFailedCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	jobsCmd.AddCommand(jobsFanoutCmd)
}

func runJobsFailed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, blobs, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer blobs.Close()

	jobs, err := store.FailedJobs(ctx, jobsFailedLimit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("no failed jobs")
		return nil
	}
	for _, j := range jobs {
		fmt.Printf("job %d  circuit=%d block=%d attempt=%d\n  %s\n",
			j.ID, j.CircuitID, j.BlockNumber, j.Attempt, j.Error)
	}
	return nil
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid job id %q", args[0])
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, blobs, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer blobs.Close()

	job, err := store.JobByID(ctx, uint32(id))
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %d not found", id)
	}
	fmt.Printf("job %d\n  round=%s circuit=%d block=%d\n  status=%s attempt=%d picked_by=%q\n",
		job.ID, job.Round, job.CircuitID, job.BlockNumber, job.Status, job.Attempt, job.PickedBy)
	if job.Status == core.StatusSuccessful {
		fmt.Printf("  time_taken=%dms\n", job.TimeTakenMs)
	}
	if job.Error != "" {
		fmt.Printf("  error=%s\n", job.Error)
	}
	return nil
}

func runJobsFanout(cmd *cobra.Command, args []string) error {
	block, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid block number %q", args[0])
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, blobs, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer blobs.Close()

	rows, err := store.ProverJobsForBlock(ctx, block, core.RoundNodeAggregation)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("no downstream prover jobs")
		return nil
	}
	for _, r := range rows {
		fmt.Printf("prover job %d  circuit=%d status=%s input=%s\n",
			r.ID, r.CircuitID, r.Status, r.InputURL)
	}
	seen := map[uint8]bool{}
	for _, r := range rows {
		if seen[r.CircuitID] {
			continue
		}
		seen[r.CircuitID] = true
		p, err := store.Pointer(ctx, block, r.CircuitID)
		if err != nil {
			return err
		}
		if p != nil {
			fmt.Printf("pointer circuit=%d dependents=%d aggregations=%s\n",
				p.CircuitID, p.DependentJobs, p.AggregationsURL)
		}
	}
	return nil
}
