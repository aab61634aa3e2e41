package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"launchpad/internal/config"
)

func newFundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Fund a subscription up to its allocation",
		RunE:  runFund,
	}
	cmd.Flags().String("from", "", "subscriber address")
	cmd.Flags().Uint64("pool", 0, "pool id")
	cmd.Flags().String("amount", "", "amount of the fundraising token")
	return cmd
}

func runFund(cmd *cobra.Command, _ []string) error {
	return run(cmd, func(a *app) error {
		caller, err := flagAddress(cmd, "from")
		if err != nil {
			return err
		}
		amount, err := flagAmount(cmd, "amount")
		if err != nil {
			return err
		}
		poolID, _ := cmd.Flags().GetUint64("pool")
		if err := a.registry.FundSubscription(cmd.Context(), caller, poolID, amount); err != nil {
			return err
		}

		raised, err := a.registry.PoolIDToTotalRaised(poolID)
		if err != nil {
			return err
		}
		a.logger.Info("subscription funded",
			zap.Uint64("pool_id", poolID),
			zap.String("account", caller.Hex()),
			zap.String("amount", config.FormatAmount(amount)),
			zap.String("total_raised", config.FormatAmount(raised)),
		)
		return nil
	})
}
