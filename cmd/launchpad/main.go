package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"launchpad/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "launchpad",
		Short:        "KYC-gated token fundraising pools with vesting rewards",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("state", "./data/launchpad.json", "state file path")
	root.PersistentFlags().String("events", "./data/events.jsonl", "event log JSONL path")
	root.PersistentFlags().String("now", "", "simulated time (unix seconds or RFC3339), defaults to wall clock")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-file", "", "optional rotating log file")
	root.PersistentFlags().Int("log-max-size", 100, "log file size in MB before rotation")

	root.AddCommand(
		newInitCmd(),
		newKYCCmd(),
		newPoolCmd(),
		newSubscribeCmd(),
		newFundCmd(),
		newVestingCmd(),
		newClaimCmd(),
		newStakeCmd(),
		newTokenCmd(),
		newNFTCmd(),
		newEventsCmd(),
		newExportCmd(),
		newAuditCmd(),
	)
	return root
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevel()
	if err := zcfg.Level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, err
	}

	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.LogFile == "" {
		return zcfg.Build()
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	encoder := zapcore.NewJSONEncoder(zcfg.EncoderConfig)
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zcfg.Level),
		zapcore.NewCore(encoder, zapcore.AddSync(rotator), zcfg.Level),
	)
	return zap.New(core, zap.AddCaller()), nil
}
