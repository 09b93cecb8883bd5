package session

import (
	"sync"
	"testing"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordEdit()
	m.RecordEdit()
	m.RecordUndo()
	m.RecordRedo()
	m.RecordPaste(3)
	m.RecordPaste(0)
	m.RecordSave()
	m.RecordSaveFailure()

	got := m.Snapshot()
	if got.Edits != 2 {
		t.Errorf("Edits = %d, want 2", got.Edits)
	}
	if got.Undos != 1 || got.Redos != 1 {
		t.Errorf("Undos/Redos = %d/%d, want 1/1", got.Undos, got.Redos)
	}
	if got.Pastes != 2 {
		t.Errorf("Pastes = %d, want 2", got.Pastes)
	}
	if got.PasteDropped != 3 {
		t.Errorf("PasteDropped = %d, want 3", got.PasteDropped)
	}
	if got.Saves != 1 || got.SaveFailures != 1 {
		t.Errorf("Saves/SaveFailures = %d/%d, want 1/1", got.Saves, got.SaveFailures)
	}
	if got.Uptime <= 0 {
		t.Error("Uptime not positive")
	}
}

func TestMetricsConcurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordEdit()
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Edits; got != 800 {
		t.Errorf("Edits = %d, want 800", got)
	}
}
