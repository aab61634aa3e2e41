package export

import (
	"context"
	"path/filepath"
	"testing"

	"launchpad/internal/model"
	"launchpad/internal/storage"
)

type memoryStore struct {
	pools   []model.Pool
	batches [][]model.EventRecord
}

func (m *memoryStore) UpsertPools(_ context.Context, pools []model.Pool) error {
	m.pools = append(m.pools, pools...)
	return nil
}

func (m *memoryStore) InsertEvents(_ context.Context, events []model.EventRecord) error {
	m.batches = append(m.batches, append([]model.EventRecord(nil), events...))
	return nil
}

func writeEvents(t *testing.T, sink *storage.JsonlStorage, from, to uint64) {
	t.Helper()
	batch := make([]model.EventRecord, 0, to-from)
	for seq := from; seq < to; seq++ {
		batch = append(batch, model.EventRecord{Seq: seq, Name: "Funded", Topics: []string{"0x00"}, Data: "0x"})
	}
	if err := sink.PutEventBatch(batch); err != nil {
		t.Fatalf("write events: %v", err)
	}
}

func TestExporterResumesFromSavedSequence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	events := storage.NewJsonlStorage(filepath.Join(dir, "events.jsonl"))
	state := &FileStateStore{Path: filepath.Join(dir, "export_state.json")}
	store := &memoryStore{}

	writeEvents(t, events, 0, 5)
	exp := NewExporter(Config{BatchSize: 2, StateStore: state}, store, events, nil)

	res, err := exp.Run(ctx, []model.Pool{{ID: 0}})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if res.Events != 5 || res.NextSeq != 5 || res.Pools != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(store.batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(store.batches))
	}

	saved, ok, err := state.Load(ctx)
	if err != nil || !ok || saved != 5 {
		t.Fatalf("unexpected saved state: %d ok=%v err=%v", saved, ok, err)
	}

	writeEvents(t, events, 5, 7)
	res, err = exp.Run(ctx, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Events != 2 || res.NextSeq != 7 {
		t.Fatalf("unexpected result: %+v", res)
	}
	last := store.batches[len(store.batches)-1]
	if last[0].Seq != 5 || last[1].Seq != 6 {
		t.Fatalf("unexpected resumed batch: %+v", last)
	}
}

func TestExporterNothingToDo(t *testing.T) {
	store := &memoryStore{}
	events := storage.NewJsonlStorage(filepath.Join(t.TempDir(), "missing.jsonl"))
	res, err := NewExporter(Config{}, store, events, nil).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Events != 0 || res.NextSeq != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}
