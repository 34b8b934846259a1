package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provelabs/witnessgen/pkg/config"
	"github.com/provelabs/witnessgen/pkg/core"
	"github.com/provelabs/witnessgen/pkg/leafagg"
)

var (
	seedCircuitID uint8
	seedBlock     uint64
	seedSubsets   int
	seedProofs    int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Stage a synthetic leaf-aggregation job for a local run",
	Long: "Writes a synthetic closed-form input bundle and base-layer proofs " +
		"to the blob store and enqueues the matching witness job. Pairs with " +
		"the synthetic dev key registry.",
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().Uint8Var(&seedCircuitID, "circuit", 3, "Base-layer circuit id")
	seedCmd.Flags().Uint64Var(&seedBlock, "block", 1, "Block number")
	seedCmd.Flags().IntVar(&seedSubsets, "subsets", 2, "Number of input subsets")
	seedCmd.Flags().IntVar(&seedProofs, "proofs", 2, "Number of synthetic base proofs")
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	bundle := &core.ClosedFormInputBundle{
		CircuitID:   seedCircuitID,
		BlockNumber: seedBlock,
		SubsetCount: seedSubsets,
	}
	for i := 0; i < seedSubsets; i++ {
		bundle.Inputs = append(bundle.Inputs, core.ClosedFormInput{
			Subset: uint64(i),
			Data:   fmt.Appendf(nil, "seed-input-%d-%d-%d", seedBlock, seedCircuitID, i),
		})
	}

	proofs := make(map[uint32]core.Proof, seedProofs)
	proofIDs := make(core.ProofIDList, 0, seedProofs)
	for i := 0; i < seedProofs; i++ {
		id := uint32(seedBlock*1000) + uint32(i)
		proofs[id] = core.WrapBase(core.BaseLayerProof{
			CircuitID: seedCircuitID,
			Payload:   fmt.Appendf(nil, "seed-proof-%d", id),
		})
		proofIDs = append(proofIDs, id)
	}

	if err := leafagg.SeedBundle(ctx, blobs, bundle, proofs); err != nil {
		return err
	}

	job := &core.WitnessJob{
		Round:       core.RoundLeafAggregation,
		CircuitID:   seedCircuitID,
		BlockNumber: seedBlock,
		ProofIDs:    proofIDs,
	}
	if err := store.EnqueueJob(ctx, job); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	fmt.Printf("seeded job %d (circuit %d, block %d, %d subsets, %d proofs)\n",
		job.ID, seedCircuitID, seedBlock, seedSubsets, seedProofs)
	return nil
}
