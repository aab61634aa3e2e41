package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"launchpad/internal/config"
	"launchpad/internal/export"
	"launchpad/internal/storage"
	"launchpad/internal/storage/postgres"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Push pools and new events to Postgres",
		RunE:  runExport,
	}
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Int("batch-size", 500, "events per insert batch")
	cmd.Flags().String("export-state-file", "", "optional local file for export progress, defaults to the exporter_state table")
	cmd.Flags().String("export-name", "launchpad", "progress key in the exporter_state table")
	cmd.Flags().Bool("migrate", false, "create missing tables first")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadExport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Config)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	st, ok, err := storage.NewStateFile(cfg.StatePath).Load()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("state file %s not found", cfg.StatePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if cfg.Migrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	var stateStore export.StateStore
	if cfg.StateFile != "" {
		stateStore = &export.FileStateStore{Path: cfg.StateFile}
	} else {
		stateStore = &export.DBStateStore{Store: store, Name: cfg.ExportName}
	}

	logger.Info("export start",
		zap.String("state", cfg.StatePath),
		zap.String("events", cfg.EventsPath),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("batch_size", cfg.BatchSize),
	)

	exp := export.NewExporter(export.Config{
		BatchSize:  cfg.BatchSize,
		StateStore: stateStore,
	}, store, newEventLog(cfg.Config), logger)

	res, err := exp.Run(ctx, st.Registry.Pools)
	if err != nil {
		return err
	}
	logger.Info("export done",
		zap.Int("pools", res.Pools),
		zap.Int("events", res.Events),
		zap.Uint64("next_seq", res.NextSeq),
	)
	return nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
