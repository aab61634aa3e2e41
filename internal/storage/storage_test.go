package storage

import (
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/internal/launchpad"
	"launchpad/internal/model"
	"launchpad/internal/token"
)

func TestJsonlStorageAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "events.jsonl")
	s := NewJsonlStorage(path)

	events, err := s.ReadEvents(0)
	if err != nil {
		t.Fatalf("read missing file: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}

	poolID := uint64(0)
	batch := []model.EventRecord{
		{Seq: 0, Name: "PoolCreated", Topics: []string{"0x01"}, Data: "0x", PoolID: &poolID, Timestamp: 10},
		{Seq: 1, Name: "Subscribed", Topics: []string{"0x02"}, Data: "0x", PoolID: &poolID, Account: "0xabc", Amount: "5", Timestamp: 11},
	}
	if err := s.PutEventBatch(batch[:1]); err != nil {
		t.Fatalf("put first batch: %v", err)
	}
	if err := s.PutEventBatch(batch[1:]); err != nil {
		t.Fatalf("put second batch: %v", err)
	}

	all, err := s.ReadEvents(0)
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if !reflect.DeepEqual(all, batch) {
		t.Fatalf("events mismatch: got %+v want %+v", all, batch)
	}

	tail, err := s.ReadEvents(1)
	if err != nil {
		t.Fatalf("read tail: %v", err)
	}
	if len(tail) != 1 || tail[0].Seq != 1 {
		t.Fatalf("unexpected tail: %+v", tail)
	}
}

func TestStateFileSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	f := NewStateFile(path)

	if _, ok, err := f.Load(); err != nil || ok {
		t.Fatalf("expected missing state, ok=%v err=%v", ok, err)
	}

	ledger := token.NewLedger()
	tok := common.HexToAddress("0x01")
	holder := common.HexToAddress("0x02")
	if err := ledger.Mint(tok, holder, big.NewInt(42)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	st := State{
		Registry: launchpad.Snapshot{Owner: holder, NextSeq: 7},
		Tokens:   ledger.Snapshot(),
	}
	if err := f.Save(st); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind: %v", err)
	}

	got, ok, err := f.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Registry.NextSeq != 7 || got.Registry.Owner != holder {
		t.Fatalf("registry snapshot mismatch: %+v", got.Registry)
	}
	if got.UpdatedAt == "" {
		t.Fatalf("expected updated_at to be set")
	}

	restored := token.RestoreLedger(got.Tokens)
	if restored.TotalSupply(tok).Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("unexpected total supply: %s", restored.TotalSupply(tok))
	}
}

func TestEventBufferFlushesOnlyOnRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log := NewJsonlStorage(path)
	buf := NewEventBuffer(log)

	if err := buf.PutEventBatch([]model.EventRecord{{Seq: 0, Name: "PoolCreated"}, {Seq: 1, Name: "Subscribed"}}); err != nil {
		t.Fatalf("buffer events: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("event log written before flush: %v", err)
	}
	if buf.Pending() != 2 {
		t.Fatalf("expected 2 pending, got %d", buf.Pending())
	}

	if err := buf.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	events, err := log.ReadEvents(0)
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if len(events) != 2 || events[1].Name != "Subscribed" {
		t.Fatalf("unexpected events after flush: %+v", events)
	}
	if buf.Pending() != 0 {
		t.Fatalf("buffer not cleared after flush")
	}

	if err := buf.PutEventBatch([]model.EventRecord{{Seq: 2, Name: "Funded"}}); err != nil {
		t.Fatalf("buffer events: %v", err)
	}
	buf.Discard()
	if err := buf.Flush(); err != nil {
		t.Fatalf("flush after discard: %v", err)
	}
	if events, _ := log.ReadEvents(0); len(events) != 2 {
		t.Fatalf("discarded event reached the log: %+v", events)
	}
}
