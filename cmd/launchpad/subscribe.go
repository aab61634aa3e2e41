package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"launchpad/internal/config"
)

func newSubscribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Subscribe to a pool with a KYC proof",
		RunE:  runSubscribe,
	}
	cmd.Flags().String("from", "", "subscriber address")
	cmd.Flags().Uint64("pool", 0, "pool id")
	cmd.Flags().String("kyc-file", "./data/kyc.json", "KYC file to take the proof from")
	cmd.Flags().Int64("index", -1, "proof index, overrides --kyc-file")
	cmd.Flags().StringSlice("proof", nil, "proof hashes, used with --index")
	cmd.Flags().Int64("nft", -1, "utility NFT id to draw guaranteed allocation from")
	return cmd
}

func runSubscribe(cmd *cobra.Command, _ []string) error {
	return run(cmd, func(a *app) error {
		caller, err := flagAddress(cmd, "from")
		if err != nil {
			return err
		}
		poolID, _ := cmd.Flags().GetUint64("pool")
		index, proof, err := proofFor(cmd, caller)
		if err != nil {
			return err
		}

		nftID, _ := cmd.Flags().GetInt64("nft")
		if nftID >= 0 {
			err = a.registry.SubscribeWithUtilityNFT(cmd.Context(), caller, poolID, uint64(nftID), index, proof)
		} else {
			err = a.registry.Subscribe(cmd.Context(), caller, poolID, index, proof)
		}
		if err != nil {
			return err
		}

		alloc, err := a.registry.GetMaximumAllocation(poolID, caller)
		if err != nil {
			return err
		}
		a.logger.Info("subscribed",
			zap.Uint64("pool_id", poolID),
			zap.String("account", caller.Hex()),
			zap.String("maximum_allocation", config.FormatAmount(alloc)),
		)
		fmt.Fprintln(cmd.OutOrStdout(), config.FormatAmount(alloc))
		return nil
	})
}

func proofFor(cmd *cobra.Command, caller common.Address) (uint64, []common.Hash, error) {
	if index, _ := cmd.Flags().GetInt64("index"); index >= 0 {
		raw, _ := cmd.Flags().GetStringSlice("proof")
		proof, err := config.ParseHashes(raw)
		if err != nil {
			return 0, nil, err
		}
		return uint64(index), proof, nil
	}

	path, _ := cmd.Flags().GetString("kyc-file")
	file, err := readKYCFile(path)
	if err != nil {
		return 0, nil, err
	}
	claim, ok := file.Records[caller]
	if !ok {
		return 0, nil, fmt.Errorf("%s is not in %s", caller.Hex(), path)
	}
	return claim.Index, claim.Proof, nil
}
