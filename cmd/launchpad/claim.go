package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"launchpad/internal/config"
)

func newClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim vested rewards or raised funds",
	}

	reward := &cobra.Command{
		Use:   "reward",
		Short: "Claim the reward vested since the last claim",
		RunE:  runClaimReward,
	}
	reward.Flags().String("from", "", "subscriber address")
	reward.Flags().Uint64("pool", 0, "pool id")

	funds := &cobra.Command{
		Use:   "funds",
		Short: "Send everything raised in a pool to the owner (owner only)",
		RunE:  runClaimFunds,
	}
	funds.Flags().String("from", "", "caller address")
	funds.Flags().Uint64("pool", 0, "pool id")

	cmd.AddCommand(reward, funds)
	return cmd
}

func runClaimReward(cmd *cobra.Command, _ []string) error {
	return run(cmd, func(a *app) error {
		caller, err := flagAddress(cmd, "from")
		if err != nil {
			return err
		}
		poolID, _ := cmd.Flags().GetUint64("pool")
		amount, err := a.registry.ClaimReward(cmd.Context(), caller, poolID)
		if err != nil {
			return err
		}
		if amount.Sign() == 0 {
			a.logger.Info("nothing newly vested", zap.Uint64("pool_id", poolID), zap.String("account", caller.Hex()))
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.FormatAmount(amount))
		return nil
	})
}

func runClaimFunds(cmd *cobra.Command, _ []string) error {
	return run(cmd, func(a *app) error {
		caller, err := flagAddress(cmd, "from")
		if err != nil {
			return err
		}
		poolID, _ := cmd.Flags().GetUint64("pool")
		amount, err := a.registry.ClaimFundRaising(cmd.Context(), caller, poolID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.FormatAmount(amount))
		return nil
	})
}
