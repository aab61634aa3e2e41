package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"launchpad/internal/config"
	"launchpad/internal/model"
)

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Create and inspect fundraising pools",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Create a pool (owner only)",
		RunE:  runPoolAdd,
	}
	add.Flags().String("from", "", "caller address")
	add.Flags().String("reward-token", "", "token distributed to subscribers")
	add.Flags().String("fund-token", "", "token raised from subscribers")
	add.Flags().String("sub-start", "", "subscription start (unix seconds or RFC3339)")
	add.Flags().String("sub-end", "", "subscription end")
	add.Flags().String("fund-end", "", "funding end")
	add.Flags().String("target", "", "fundraising target")
	add.Flags().String("price", "", "fundraising tokens paid per reward token")
	add.Flags().String("min", "", "minimum allocation")
	add.Flags().String("max", "", "maximum allocation")
	add.Flags().String("base", "", "allocation the tier multiplier scales, defaults to --min")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print a pool and optionally one subscription",
		RunE:  runPoolShow,
	}
	show.Flags().Uint64("pool", 0, "pool id")
	show.Flags().String("account", "", "subscriber to include")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print every pool",
		RunE:  runPoolList,
	}

	cmd.AddCommand(add, show, list)
	return cmd
}

func runPoolAdd(cmd *cobra.Command, _ []string) error {
	return run(cmd, func(a *app) error {
		caller, err := flagAddress(cmd, "from")
		if err != nil {
			return err
		}
		var cfg model.PoolConfig
		if cfg.RewardToken, err = flagAddress(cmd, "reward-token"); err != nil {
			return err
		}
		if cfg.FundRaisingToken, err = flagAddress(cmd, "fund-token"); err != nil {
			return err
		}
		if cfg.SubscriptionStartTime, err = flagTimestamp(cmd, "sub-start"); err != nil {
			return err
		}
		if cfg.SubscriptionEndTime, err = flagTimestamp(cmd, "sub-end"); err != nil {
			return err
		}
		if cfg.FundingEndTime, err = flagTimestamp(cmd, "fund-end"); err != nil {
			return err
		}
		if cfg.FundRaisingTarget, err = flagAmount(cmd, "target"); err != nil {
			return err
		}
		if cfg.TokenPrice, err = flagAmount(cmd, "price"); err != nil {
			return err
		}
		if cfg.MinAllocation, err = flagAmount(cmd, "min"); err != nil {
			return err
		}
		if cfg.MaxAllocation, err = flagAmount(cmd, "max"); err != nil {
			return err
		}
		if base, _ := cmd.Flags().GetString("base"); base != "" {
			if cfg.BaseAllocation, err = config.ParseAmount(base); err != nil {
				return fmt.Errorf("--base: %w", err)
			}
		}

		poolID, err := a.registry.AddPool(cmd.Context(), caller, cfg)
		if err != nil {
			return err
		}
		a.logger.Info("pool added", zap.Uint64("pool_id", poolID))
		fmt.Fprintln(cmd.OutOrStdout(), poolID)
		return nil
	})
}

// poolView is the printed form of a pool with human-readable amounts.
type poolView struct {
	model.Pool
	Display map[string]string   `json:"display"`
	Sub     *model.Subscription `json:"subscription,omitempty"`
	Pending string              `json:"pending_reward,omitempty"`
}

func newPoolView(pool model.Pool) poolView {
	display := map[string]string{
		"fund_raising_target": config.FormatAmount(pool.FundRaisingTarget),
		"token_price":         config.FormatAmount(pool.TokenPrice),
		"min_allocation":      config.FormatAmount(pool.MinAllocation),
		"max_allocation":      config.FormatAmount(pool.MaxAllocation),
		"total_raised":        config.FormatAmount(pool.TotalRaised),
	}
	if pool.Vesting != nil {
		display["reward_amount"] = config.FormatAmount(pool.Vesting.RewardAmount)
	}
	return poolView{Pool: pool, Display: display}
}

func runPoolShow(cmd *cobra.Command, _ []string) error {
	return view(cmd, func(a *app) error {
		poolID, _ := cmd.Flags().GetUint64("pool")
		pool, err := a.registry.Pool(poolID)
		if err != nil {
			return err
		}
		out := newPoolView(pool)

		if raw, _ := cmd.Flags().GetString("account"); raw != "" {
			account, err := config.ParseAddress(raw)
			if err != nil {
				return err
			}
			sub, err := a.registry.Subscription(poolID, account)
			if err != nil {
				return err
			}
			pending, err := a.registry.PendingReward(poolID, account)
			if err != nil {
				return err
			}
			out.Sub = &sub
			out.Pending = config.FormatAmount(pending)
		}
		return printJSON(cmd.OutOrStdout(), out)
	})
}

func runPoolList(cmd *cobra.Command, _ []string) error {
	return view(cmd, func(a *app) error {
		views := make([]poolView, 0, a.registry.PoolCount())
		for id := uint64(0); id < a.registry.PoolCount(); id++ {
			pool, err := a.registry.Pool(id)
			if err != nil {
				return err
			}
			views = append(views, newPoolView(pool))
		}
		return printJSON(cmd.OutOrStdout(), views)
	})
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
