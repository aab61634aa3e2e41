package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"launchpad/internal/launchpad"
	"launchpad/internal/staking"
	"launchpad/internal/token"
)

// State is everything a CLI invocation needs to rebuild the launchpad.
type State struct {
	Registry  launchpad.Snapshot   `json:"registry"`
	Tokens    token.LedgerSnapshot `json:"tokens"`
	NFTs      []token.NFTRecord    `json:"nfts"`
	Staking   *staking.Snapshot    `json:"staking,omitempty"`
	UpdatedAt string               `json:"updated_at"`
}

// StateFile persists State as a single JSON document.
type StateFile struct {
	path string
}

func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

func (f *StateFile) Path() string { return f.path }

// Load returns the stored state and whether the file existed.
func (f *StateFile) Load() (State, bool, error) {
	stat, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("stat state file: %w", err)
	}
	if stat.IsDir() {
		return State{}, false, fmt.Errorf("state path is a directory")
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return State{}, false, fmt.Errorf("read state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, false, fmt.Errorf("parse state file: %w", err)
	}
	return st, true, nil
}

// Save writes st through a temporary file and a rename.
func (f *StateFile) Save(st State) error {
	dir := filepath.Dir(f.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	st.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}
