package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"launchpad/internal/config"
)

func newVestingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vesting",
		Short: "Configure reward vesting after funding ends",
	}

	required := &cobra.Command{
		Use:   "required",
		Short: "Print the reward amount a pool needs deposited",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return view(cmd, func(a *app) error {
				poolID, _ := cmd.Flags().GetUint64("pool")
				amount, err := a.registry.GetRequiredRewardAmountForAmountRaised(poolID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), config.FormatAmount(amount))
				return nil
			})
		},
	}
	required.Flags().Uint64("pool", 0, "pool id")

	setup := &cobra.Command{
		Use:   "setup",
		Short: "Deposit rewards and fix the vesting schedule (owner only)",
		RunE:  runVestingSetup,
	}
	setup.Flags().String("from", "", "caller address")
	setup.Flags().Uint64("pool", 0, "pool id")
	setup.Flags().String("amount", "", "reward amount, defaults to the required amount")
	setup.Flags().String("start", "", "vesting start")
	setup.Flags().String("cliff", "", "first claimable time")
	setup.Flags().String("end", "", "vesting end")

	cmd.AddCommand(required, setup)
	return cmd
}

func runVestingSetup(cmd *cobra.Command, _ []string) error {
	return run(cmd, func(a *app) error {
		caller, err := flagAddress(cmd, "from")
		if err != nil {
			return err
		}
		poolID, _ := cmd.Flags().GetUint64("pool")
		start, err := flagTimestamp(cmd, "start")
		if err != nil {
			return err
		}
		cliff, err := flagTimestamp(cmd, "cliff")
		if err != nil {
			return err
		}
		end, err := flagTimestamp(cmd, "end")
		if err != nil {
			return err
		}

		amount, err := a.registry.GetRequiredRewardAmountForAmountRaised(poolID)
		if err != nil {
			return err
		}
		if raw, _ := cmd.Flags().GetString("amount"); raw != "" {
			if amount, err = config.ParseAmount(raw); err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
		}

		if err := a.registry.SetupVestingRewards(cmd.Context(), caller, poolID, amount, start, cliff, end); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.FormatAmount(amount))
		return nil
	})
}
