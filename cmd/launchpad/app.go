package main

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"launchpad/internal/config"
	"launchpad/internal/launchpad"
	"launchpad/internal/staking"
	"launchpad/internal/storage"
	"launchpad/internal/token"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// app is one CLI invocation's view of the persisted launchpad.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	clock     launchpad.Clock
	stateFile *storage.StateFile
	events    *storage.EventBuffer

	registry *launchpad.Registry
	tokens   *token.Ledger
	nft      *token.UtilityNFT
	staking  *staking.Ledger
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}

func clockFor(cfg config.Config) (launchpad.Clock, error) {
	if cfg.Now == "" {
		return fixedClock{now: time.Now()}, nil
	}
	ts, err := config.ParseTimestamp(cfg.Now)
	if err != nil {
		return nil, fmt.Errorf("parse now: %w", err)
	}
	return fixedClock{now: time.Unix(int64(ts), 0)}, nil
}

func newEventLog(cfg config.Config) *storage.JsonlStorage {
	return storage.NewJsonlStorage(cfg.EventsPath)
}

// openApp restores the registry and its collaborators from the state file.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	clock, err := clockFor(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		clock:     clock,
		stateFile: storage.NewStateFile(cfg.StatePath),
		events:    storage.NewEventBuffer(newEventLog(cfg)),
	}

	st, ok, err := a.stateFile.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("state file %s not found, run `launchpad init` first", cfg.StatePath)
	}

	a.tokens = token.RestoreLedger(st.Tokens)
	a.nft = token.RestoreNFT(st.NFTs)
	deps := launchpad.Deps{
		Tokens: a.tokens,
		NFT:    a.nft,
		Clock:  clock,
		Sink:   a.events,
		Logger: logger.Named("registry"),
	}
	if st.Staking != nil {
		a.staking = staking.Restore(*st.Staking, a.tokens, clock, logger.Named("staking"))
		deps.Scorer = a.staking
	}

	a.registry, err = launchpad.Restore(st.Registry, deps)
	if err != nil {
		return nil, fmt.Errorf("restore registry: %w", err)
	}
	return a, nil
}

// save writes every component back to the state file.
func (a *app) save() error {
	st := storage.State{
		Registry: a.registry.Snapshot(),
		Tokens:   a.tokens.Snapshot(),
		NFTs:     a.nft.Records(),
	}
	if a.staking != nil {
		snap := a.staking.Snapshot()
		st.Staking = &snap
	}
	if err := a.stateFile.Save(st); err != nil {
		return err
	}
	a.logger.Debug("state saved", zap.String("path", a.stateFile.Path()))
	return nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func (a *app) now() uint64 {
	return uint64(a.clock.Now().Unix())
}

// run opens the app, applies fn and persists the result when fn succeeds.
// Events reach the log only after the state that produced them is saved.
func run(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := fn(a); err != nil {
		return err
	}
	if err := a.save(); err != nil {
		a.events.Discard()
		return err
	}
	if err := a.events.Flush(); err != nil {
		a.logger.Error("event log write failed after state save", zap.Int("events", a.events.Pending()), zap.Error(err))
		return fmt.Errorf("write event log: %w", err)
	}
	return nil
}

// view opens the app and applies fn without persisting.
func view(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

func flagAddress(cmd *cobra.Command, name string) (common.Address, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return common.Address{}, fmt.Errorf("--%s is required", name)
	}
	addr, err := config.ParseAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("--%s: %w", name, err)
	}
	return addr, nil
}

func flagAmount(cmd *cobra.Command, name string) (*big.Int, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, fmt.Errorf("--%s is required", name)
	}
	amount, err := config.ParseAmount(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return amount, nil
}

func flagTimestamp(cmd *cobra.Command, name string) (uint64, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return 0, fmt.Errorf("--%s is required", name)
	}
	ts, err := config.ParseTimestamp(raw)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return ts, nil
}
