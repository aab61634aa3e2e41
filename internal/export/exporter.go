package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"launchpad/internal/model"
	"launchpad/internal/storage"
)

// Store is the destination of an export.
type Store interface {
	UpsertPools(ctx context.Context, pools []model.Pool) error
	InsertEvents(ctx context.Context, events []model.EventRecord) error
}

type Config struct {
	BatchSize  int
	StateStore StateStore
}

// Result summarizes one export run.
type Result struct {
	Pools   int
	Events  int
	NextSeq uint64
}

// Exporter pushes pools and journaled events into a Store, resuming from the
// last saved sequence number.
type Exporter struct {
	cfg    Config
	store  Store
	source storage.EventSource
	logger *zap.Logger
}

func NewExporter(cfg Config, store Store, source storage.EventSource, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Exporter{cfg: cfg, store: store, source: source, logger: logger}
}

// Run upserts every pool and then inserts events not yet exported. Progress
// is saved after each committed batch.
func (e *Exporter) Run(ctx context.Context, pools []model.Pool) (Result, error) {
	if e.store == nil {
		return Result{}, fmt.Errorf("store is nil")
	}
	if e.source == nil {
		return Result{}, fmt.Errorf("event source is nil")
	}

	var nextSeq uint64
	if e.cfg.StateStore != nil {
		seq, ok, err := e.cfg.StateStore.Load(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("load export state: %w", err)
		}
		if ok {
			nextSeq = seq
		}
	}

	if err := e.store.UpsertPools(ctx, pools); err != nil {
		return Result{}, fmt.Errorf("upsert pools: %w", err)
	}

	events, err := e.source.ReadEvents(nextSeq)
	if err != nil {
		return Result{}, fmt.Errorf("read events: %w", err)
	}

	res := Result{Pools: len(pools), NextSeq: nextSeq}
	if len(events) == 0 {
		return res, nil
	}
	ranges, err := SplitRange(0, uint64(len(events)-1), uint64(e.cfg.BatchSize))
	if err != nil {
		return res, err
	}

	for _, rg := range ranges {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		batch := events[rg.From : rg.To+1]
		if err := e.store.InsertEvents(ctx, batch); err != nil {
			return res, fmt.Errorf("insert events: %w", err)
		}

		res.Events += len(batch)
		res.NextSeq = batch[len(batch)-1].Seq + 1
		if e.cfg.StateStore != nil {
			if err := e.cfg.StateStore.Save(ctx, res.NextSeq); err != nil {
				return res, fmt.Errorf("save export state: %w", err)
			}
		}
		e.logger.Info("export batch committed",
			zap.Int("events", len(batch)),
			zap.Uint64("next_seq", res.NextSeq),
		)
	}

	return res, nil
}
