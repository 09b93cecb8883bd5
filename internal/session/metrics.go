package session

import (
	"sync/atomic"
	"time"
)

// Metrics tracks per-session counters. All methods are safe for
// concurrent use.
type Metrics struct {
	edits        atomic.Uint64
	undos        atomic.Uint64
	redos        atomic.Uint64
	pastes       atomic.Uint64
	pasteDropped atomic.Uint64
	saves        atomic.Uint64
	saveFailures atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordEdit records one engine mutation.
func (m *Metrics) RecordEdit() {
	m.edits.Add(1)
}

// RecordUndo records an undo.
func (m *Metrics) RecordUndo() {
	m.undos.Add(1)
}

// RecordRedo records a redo.
func (m *Metrics) RecordRedo() {
	m.redos.Add(1)
}

// RecordPaste records a paste together with the number of elements the
// sanitizer dropped from it.
func (m *Metrics) RecordPaste(dropped int) {
	m.pastes.Add(1)
	if dropped > 0 {
		m.pasteDropped.Add(uint64(dropped))
	}
}

// RecordSave records a successful save.
func (m *Metrics) RecordSave() {
	m.saves.Add(1)
}

// RecordSaveFailure records a failed save attempt.
func (m *Metrics) RecordSaveFailure() {
	m.saveFailures.Add(1)
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Edits        uint64
	Undos        uint64
	Redos        uint64
	Pastes       uint64
	PasteDropped uint64
	Saves        uint64
	SaveFailures uint64
	Uptime       time.Duration
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Edits:        m.edits.Load(),
		Undos:        m.undos.Load(),
		Redos:        m.redos.Load(),
		Pastes:       m.pastes.Load(),
		PasteDropped: m.pasteDropped.Load(),
		Saves:        m.saves.Load(),
		SaveFailures: m.saveFailures.Load(),
		Uptime:       time.Since(m.startTime),
	}
}
