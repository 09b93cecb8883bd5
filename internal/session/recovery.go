package session

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// Journal is the crash-recovery store. After a failed save the current
// serialized draft is written here atomically; a successful save clears
// it. A journal entry found on open means a previous session died with
// unsaved edits, and its content is surfaced rather than discarded.
type Journal struct {
	dir string
}

// NewJournal creates a journal rooted at dir, creating it if needed.
func NewJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	return &Journal{dir: dir}, nil
}

// Write stores the serialized draft for the given id. The write is
// atomic: a crash mid-write leaves the previous entry intact.
func (j *Journal) Write(draftID string, data []byte) error {
	if err := atomic.WriteFile(j.path(draftID), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write journal for %s: %w", draftID, err)
	}
	return nil
}

// Read returns the journaled draft for the given id, or ok=false when
// no entry exists.
func (j *Journal) Read(draftID string) (data []byte, ok bool, err error) {
	data, err = os.ReadFile(j.path(draftID))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read journal for %s: %w", draftID, err)
	}
	return data, true, nil
}

// Clear removes the journal entry for the given id. Clearing a missing
// entry is not an error.
func (j *Journal) Clear(draftID string) error {
	err := os.Remove(j.path(draftID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear journal for %s: %w", draftID, err)
	}
	return nil
}

// path escapes the draft id so ids with separators stay inside dir.
func (j *Journal) path(draftID string) string {
	return filepath.Join(j.dir, url.PathEscape(draftID)+".recovery.json")
}
