package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"launchpad/internal/config"
	"launchpad/internal/launchpad"
	"launchpad/internal/staking"
	"launchpad/internal/storage"
	"launchpad/internal/tier"
	"launchpad/internal/token"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a fresh state file for a registry deployment",
		RunE:  runInit,
	}
	cmd.Flags().String("owner", "", "registry owner address")
	cmd.Flags().String("escrow", "", "escrow account holding deposits and rewards")
	cmd.Flags().String("kyc-root", "", "initial KYC merkle root")
	cmd.Flags().StringSlice("tier-scores", nil, "tier minimum scores, descending")
	cmd.Flags().StringSlice("tier-multipliers", nil, "tier multipliers in percent")
	cmd.Flags().String("staking-address", "", "staking custody account (enables the staking ledger)")
	cmd.Flags().String("staking-token", "", "token staked for score")
	cmd.Flags().String("rewards-token", "", "token paid as staking rewards")
	cmd.Flags().String("distributor", "", "account allowed to notify staking rewards")
	cmd.Flags().String("non-withdrawal-boost", "0.5", "reward bonus for holders that never withdraw (0.5 = +50%)")
	cmd.Flags().Uint64("boost-period-days", 356, "days without withdrawal before the boost applies")
	cmd.Flags().Uint64("minimum-lock-days", 7, "minimum stake lock in days")
	cmd.Flags().Bool("force", false, "overwrite an existing state file")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadInit(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Config)
	if err != nil {
		return err
	}
	defer logger.Sync()

	stateFile := storage.NewStateFile(cfg.StatePath)
	force, _ := cmd.Flags().GetBool("force")
	if _, exists, err := stateFile.Load(); err != nil && !force {
		return err
	} else if exists && !force {
		return fmt.Errorf("state file %s already exists, pass --force to overwrite", cfg.StatePath)
	}

	owner, err := config.ParseAddress(cfg.Owner)
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	escrow, err := config.ParseAddress(cfg.Escrow)
	if err != nil {
		return fmt.Errorf("escrow: %w", err)
	}
	var root common.Hash
	if cfg.KYCRoot != "" {
		if root, err = config.ParseHash(cfg.KYCRoot); err != nil {
			return fmt.Errorf("kyc root: %w", err)
		}
	}
	tiers, err := tier.NewTable(cfg.TierScores, cfg.TierMultipliers)
	if err != nil {
		return err
	}

	tokens := token.NewLedger()
	registry, err := launchpad.NewRegistry(launchpad.Config{
		Owner:   owner,
		Escrow:  escrow,
		Tiers:   tiers,
		KYCRoot: root,
	}, launchpad.Deps{Tokens: tokens, Logger: logger})
	if err != nil {
		return err
	}

	st := storage.State{
		Registry: registry.Snapshot(),
		Tokens:   tokens.Snapshot(),
	}
	if cfg.StakingAddress != "" {
		stakingCfg, err := stakingConfig(cfg)
		if err != nil {
			return err
		}
		snap := staking.NewLedger(stakingCfg, tokens, fixedClock{}, logger).Snapshot()
		st.Staking = &snap
	}

	if err := stateFile.Save(st); err != nil {
		return err
	}
	logger.Info("state initialised",
		zap.String("state", cfg.StatePath),
		zap.String("owner", owner.Hex()),
		zap.String("escrow", escrow.Hex()),
		zap.Int("tiers", len(tiers.Tiers())),
		zap.Bool("staking", st.Staking != nil),
	)
	return nil
}

func stakingConfig(cfg config.InitConfig) (staking.Config, error) {
	addrs, err := config.ParseAddresses([]string{cfg.StakingAddress, cfg.StakingToken, cfg.RewardsToken, cfg.Distributor})
	if err != nil {
		return staking.Config{}, fmt.Errorf("staking: %w", err)
	}
	if len(addrs) != 4 {
		return staking.Config{}, fmt.Errorf("staking: address, staking token, rewards token and distributor are required")
	}
	boost, err := config.ParseAmount(cfg.NonWithdrawalBoost)
	if err != nil {
		return staking.Config{}, fmt.Errorf("staking: %w", err)
	}
	return staking.Config{
		Address:                  addrs[0],
		StakingToken:             addrs[1],
		RewardsToken:             addrs[2],
		Distributor:              addrs[3],
		NonWithdrawalBoost:       boost,
		NonWithdrawalBoostPeriod: cfg.NonWithdrawalBoostPeriod,
		MinimumLockDays:          cfg.MinimumLockDays,
	}, nil
}
