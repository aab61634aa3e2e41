package config

import (
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestParseAmount(t *testing.T) {
	wad := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	cases := map[string]*big.Int{
		"1":      wad,
		"0.01":   new(big.Int).Quo(wad, big.NewInt(100)),
		"1250":   new(big.Int).Mul(big.NewInt(1250), wad),
		"0.5":    new(big.Int).Quo(wad, big.NewInt(2)),
		" 2.25 ": new(big.Int).Quo(new(big.Int).Mul(big.NewInt(9), wad), big.NewInt(4)),
	}
	for input, want := range cases {
		got, err := ParseAmount(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got.Cmp(want) != 0 {
			t.Fatalf("parse %q: got %s want %s", input, got, want)
		}
	}

	one, err := ParseAmount("0.000000000000000001")
	if err != nil || one.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("smallest unit: %v %v", one, err)
	}

	for _, input := range []string{"-1", "abc", "0.0000000000000000001", ""} {
		if _, err := ParseAmount(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	v, err := ParseAmount("62500.5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := FormatAmount(v); got != "62500.5" {
		t.Fatalf("unexpected format %s", got)
	}
	if got := FormatAmount(nil); got != "0" {
		t.Fatalf("unexpected nil format %s", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("1700000000")
	if err != nil || ts != 1_700_000_000 {
		t.Fatalf("unix: %d %v", ts, err)
	}
	ts, err = ParseTimestamp("2023-11-14T22:13:20Z")
	if err != nil || ts != 1_700_000_000 {
		t.Fatalf("rfc3339: %d %v", ts, err)
	}
	ts, err = ParseTimestamp("")
	if err != nil || ts != 0 {
		t.Fatalf("empty: %d %v", ts, err)
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseHashes(t *testing.T) {
	hashes, err := ParseHashes([]string{
		"0x0000000000000000000000000000000000000000000000000000000000000001",
		"",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(hashes) != 1 || hashes[0][31] != 1 {
		t.Fatalf("unexpected hashes %v", hashes)
	}
	if _, err := ParseHashes([]string{"0x01"}); err == nil {
		t.Fatalf("expected length error")
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "launchpad.yaml")
	content := "state: ./from-file.json\nlog-level: warn\ntier-scores: [100, 50]\ntier-multipliers: [200, 100]\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LAUNCHPAD_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("events", "", "")
	if err := flags.Parse([]string{"--events", "./from-flag.jsonl"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadInit(cfgFile, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StatePath != "./from-file.json" {
		t.Fatalf("state from file: %s", cfg.StatePath)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level from env: %s", cfg.LogLevel)
	}
	if cfg.EventsPath != "./from-flag.jsonl" {
		t.Fatalf("events from flag: %s", cfg.EventsPath)
	}
	if !reflect.DeepEqual(cfg.TierScores, []uint64{100, 50}) || !reflect.DeepEqual(cfg.TierMultipliers, []uint64{200, 100}) {
		t.Fatalf("tiers from file: %v %v", cfg.TierScores, cfg.TierMultipliers)
	}
	if cfg.MinimumLockDays != 7 {
		t.Fatalf("default minimum lock days: %d", cfg.MinimumLockDays)
	}
}

func TestLoadAuditDefaults(t *testing.T) {
	cfg, err := LoadAudit(filepath.Join(t.TempDir(), "none.yaml"), nil)
	if err == nil {
		t.Fatalf("expected missing explicit config file to fail, got %+v", cfg)
	}

	cfg, err = LoadAudit("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxRetries != 5 || cfg.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
