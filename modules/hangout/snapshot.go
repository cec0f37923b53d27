package hangout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/example/hangout-hub/domain/hangout"
)

// ErrStorageUnavailable is returned when the backing file cannot be read.
// Callers fall back to the empty default state instead of aborting.
var ErrStorageUnavailable = errors.New("snapshot storage unavailable")

func emptySnapshot() *domain.Snapshot {
	return &domain.Snapshot{NextHangoutID: 1}
}

// loadSnapshot reads the whole persisted state. A missing file is a fresh
// start; an unreadable or corrupt file yields the empty default state
// alongside ErrStorageUnavailable so callers can log and continue.
func loadSnapshot(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptySnapshot(), nil
		}
		return emptySnapshot(), fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return emptySnapshot(), fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	normalizeSnapshot(&snap)
	return &snap, nil
}

// normalizeSnapshot repairs the id counter after loading a hand-edited or
// older file. NextHangoutID must stay strictly above every existing id.
func normalizeSnapshot(snap *domain.Snapshot) {
	if snap.NextHangoutID < 1 {
		snap.NextHangoutID = 1
	}
	for i := range snap.Hangouts {
		if snap.Hangouts[i].ID >= snap.NextHangoutID {
			snap.NextHangoutID = snap.Hangouts[i].ID + 1
		}
	}
}

// saveSnapshot persists the whole state. The document is written to a
// temporary file and renamed into place so a concurrent reader never
// observes a half-written file.
func saveSnapshot(path string, snap *domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
