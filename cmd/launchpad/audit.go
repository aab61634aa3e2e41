package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"launchpad/internal/audit"
	"launchpad/internal/chain"
	"launchpad/internal/config"
	"launchpad/internal/storage"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Compare expected escrow holdings with on-chain balances",
		RunE:  runAudit,
	}
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("escrow", "", "deployed escrow address, defaults to the registry escrow")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	return cmd
}

func runAudit(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAudit(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Config)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	st, ok, err := storage.NewStateFile(cfg.StatePath).Load()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("state file %s not found", cfg.StatePath)
	}
	escrow := st.Registry.Escrow
	if raw, _ := cmd.Flags().GetString("escrow"); raw != "" {
		if escrow, err = config.ParseAddress(raw); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	report, err := audit.NewAuditor(chainClient, cfg.MaxRetries, cfg.RetryBackoff, logger).Run(ctx, escrow, st.Registry.Pools)
	if err != nil {
		return err
	}
	logger.Info("audit pinned",
		zap.String("chain_id", report.ChainID.String()),
		zap.Uint64("block", report.Block),
		zap.String("block_time", time.Unix(int64(report.BlockTime), 0).UTC().Format(time.RFC3339)),
		zap.String("escrow", escrow.Hex()),
	)

	var short int
	for _, line := range report.Lines {
		shortfall := line.Shortfall()
		fields := []zap.Field{
			zap.String("token", line.Token.Hex()),
			zap.String("expected", line.Format(line.Expected)),
			zap.String("actual", line.Format(line.Actual)),
		}
		if shortfall.Sign() > 0 {
			short++
			logger.Warn("escrow short", append(fields, zap.String("shortfall", line.Format(shortfall)))...)
			continue
		}
		logger.Info("escrow covered", fields...)
	}
	if short > 0 {
		return fmt.Errorf("escrow short on %d of %d tokens at block %d", short, len(report.Lines), report.Block)
	}
	return nil
}
