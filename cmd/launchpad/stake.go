package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"launchpad/internal/config"
	"launchpad/internal/staking"
)

func newStakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stake",
		Short: "Stake for allocation score and rewards",
	}

	deposit := &cobra.Command{
		Use:   "deposit",
		Short: "Stake tokens with a lock",
		RunE: stakingRun(func(cmd *cobra.Command, a *app, ledger *staking.Ledger) error {
			user, err := flagAddress(cmd, "from")
			if err != nil {
				return err
			}
			amount, err := flagAmount(cmd, "amount")
			if err != nil {
				return err
			}
			lockDays, _ := cmd.Flags().GetUint64("lock-days")
			return ledger.Stake(cmd.Context(), user, amount, lockDays)
		}),
	}
	deposit.Flags().String("from", "", "staker address")
	deposit.Flags().String("amount", "", "amount to stake")
	deposit.Flags().Uint64("lock-days", 7, "lock duration in days")

	withdraw := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw unlocked stake",
		RunE: stakingRun(func(cmd *cobra.Command, a *app, ledger *staking.Ledger) error {
			user, err := flagAddress(cmd, "from")
			if err != nil {
				return err
			}
			amount, err := flagAmount(cmd, "amount")
			if err != nil {
				return err
			}
			return ledger.Withdraw(cmd.Context(), user, amount)
		}),
	}
	withdraw.Flags().String("from", "", "staker address")
	withdraw.Flags().String("amount", "", "amount to withdraw")

	reward := &cobra.Command{
		Use:   "get-reward",
		Short: "Collect accrued staking rewards",
		RunE: stakingRun(func(cmd *cobra.Command, a *app, ledger *staking.Ledger) error {
			user, err := flagAddress(cmd, "from")
			if err != nil {
				return err
			}
			paid, err := ledger.GetReward(cmd.Context(), user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.FormatAmount(paid))
			return nil
		}),
	}
	reward.Flags().String("from", "", "staker address")

	notify := &cobra.Command{
		Use:   "notify-reward",
		Short: "Fund a reward period (rewards distributor only)",
		RunE: stakingRun(func(cmd *cobra.Command, a *app, ledger *staking.Ledger) error {
			caller, err := flagAddress(cmd, "from")
			if err != nil {
				return err
			}
			amount, err := flagAmount(cmd, "amount")
			if err != nil {
				return err
			}
			duration, _ := cmd.Flags().GetUint64("duration")
			return ledger.NotifyRewardAmount(cmd.Context(), caller, amount, duration)
		}),
	}
	notify.Flags().String("from", "", "distributor address")
	notify.Flags().String("amount", "", "reward amount")
	notify.Flags().Uint64("duration", 0, "reward period in seconds")

	score := &cobra.Command{
		Use:   "score",
		Short: "Print the allocation score of an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return view(cmd, func(a *app) error {
				if a.staking == nil {
					return errStakingDisabled
				}
				user, err := flagAddress(cmd, "account")
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"score":       a.staking.ScoreOf(user, a.now()),
					"staked":      config.FormatAmount(a.staking.BalanceOf(user)),
					"earned":      config.FormatAmount(a.staking.Earned(user)),
					"lock_expiry": a.staking.LockExpiry(user),
				})
			})
		},
	}
	score.Flags().String("account", "", "staker address")

	cmd.AddCommand(deposit, withdraw, reward, notify, score)
	return cmd
}

var errStakingDisabled = errors.New("staking ledger not configured, re-run init with --staking-address")

func stakingRun(fn func(cmd *cobra.Command, a *app, ledger *staking.Ledger) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return run(cmd, func(a *app) error {
			if a.staking == nil {
				return errStakingDisabled
			}
			return fn(cmd, a, a.staking)
		})
	}
}
