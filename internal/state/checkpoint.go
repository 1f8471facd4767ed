// Package state persists the small amount of cross-run state the
// sniper keeps: the last processed slot (so a restart does not replay
// stale blocks) and session counters for the journal summary.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type Checkpoint struct {
	SessionID string `json:"session_id"`

	LastProcessedSlot uint64 `json:"last_processed_slot"`

	EntriesSubmitted int    `json:"entries_submitted"`
	ExitsSubmitted   int    `json:"exits_submitted"`
	LastMint         string `json:"last_mint,omitempty"`

	UpdatedAtMs int64 `json:"updated_at_ms"`
}

func LoadCheckpoint(path string) (Checkpoint, bool, error) {
	if path == "" {
		return Checkpoint{}, false, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, err
	}

	var ckpt Checkpoint
	if err := json.Unmarshal(b, &ckpt); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	return ckpt, true, nil
}

// SaveCheckpoint writes atomically (tmp + rename) so a crash mid-write
// cannot leave a torn file behind.
func SaveCheckpoint(path string, ckpt Checkpoint) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	b, err := json.MarshalIndent(ckpt, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
