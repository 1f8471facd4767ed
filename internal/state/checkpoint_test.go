package state

import (
	"path/filepath"
	"testing"
)

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "sniper.ckpt.json")

	if _, ok, err := LoadCheckpoint(path); err != nil || ok {
		t.Fatalf("missing checkpoint: ok=%v err=%v", ok, err)
	}

	want := Checkpoint{
		SessionID:         "session-1",
		LastProcessedSlot: 250_000_123,
		EntriesSubmitted:  3,
		ExitsSubmitted:    4,
		LastMint:          "HeLp6NuQkmYB4pYWo2zYs22mESHXPQYzXbB8n4V98jwC",
		UpdatedAtMs:       1_700_000_000_000,
	}
	if err := SaveCheckpoint(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := LoadCheckpoint(path)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestCheckpointEmptyPathIsNoop(t *testing.T) {
	if err := SaveCheckpoint("", Checkpoint{}); err != nil {
		t.Fatalf("save with empty path: %v", err)
	}
	if _, ok, err := LoadCheckpoint(""); err != nil || ok {
		t.Fatalf("load with empty path: ok=%v err=%v", ok, err)
	}
}
