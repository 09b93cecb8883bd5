package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/draftmark/draftmark/internal/autosave"
	"github.com/draftmark/draftmark/internal/draftstore"
	"github.com/draftmark/draftmark/internal/engine"
	"github.com/draftmark/draftmark/internal/engine/node"
	"github.com/draftmark/draftmark/internal/input"
	"github.com/draftmark/draftmark/internal/sanitize"
)

// Store is the draft-store collaborator as the session sees it.
// *draftstore.Client implements it.
type Store interface {
	Fetch(ctx context.Context, id string) (draftstore.Draft, error)
	Store(ctx context.Context, d draftstore.Draft) (newETag string, err error)
}

// SaveListener receives the outcome of every save attempt, nil on
// success. It runs on the scheduler's goroutine.
type SaveListener func(err error)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithJournal enables the crash-recovery journal.
func WithJournal(j *Journal) Option {
	return func(s *Session) {
		s.journal = j
	}
}

// WithSaveListener registers a callback for save outcomes.
func WithSaveListener(fn SaveListener) Option {
	return func(s *Session) {
		s.onSave = fn
	}
}

// WithEngineOptions passes options through to the engine constructor.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Session) {
		s.engOpts = append(s.engOpts, opts...)
	}
}

// WithSchedulerOptions passes options through to the autosave
// scheduler constructor.
func WithSchedulerOptions(opts ...autosave.Option) Option {
	return func(s *Session) {
		s.schedOpts = append(s.schedOpts, opts...)
	}
}

// Session owns one draft for the duration of an editing session. All
// mutation flows through the engine; the session wires the engine's
// change notifications to the autosave scheduler and keeps the store
// revision tag for conditional writes.
type Session struct {
	id      string
	draftID string
	store   Store
	log     *slog.Logger
	journal *Journal
	metrics *Metrics
	onSave  SaveListener

	engOpts   []engine.Option
	schedOpts []autosave.Option

	eng   *engine.Engine
	tr    *input.Translator
	sched *autosave.Scheduler

	mu        sync.Mutex
	etag      string
	recovered []engine.Node
	closed    bool
}

// Open fetches the draft and builds a ready session around it. The
// citation registry is populated wholesale from the fetched markers. A
// leftover journal entry for the draft is decoded and surfaced through
// Recovered, never silently applied.
func Open(ctx context.Context, draftID string, store Store, opts ...Option) (*Session, error) {
	s := &Session{
		id:      uuid.NewString(),
		draftID: draftID,
		store:   store,
		log:     slog.Default(),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session", s.id, "draft", draftID)

	d, err := store.Fetch(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("open draft %s: %w", draftID, err)
	}
	nodes, err := node.UnmarshalNodes(d.Nodes)
	if err != nil {
		return nil, fmt.Errorf("open draft %s: %w", draftID, err)
	}

	engOpts := append(s.engOpts, engine.WithChangeListener(s.onEngineChange))
	s.eng, err = engine.NewFromNodes(nodes, engOpts...)
	if err != nil {
		return nil, fmt.Errorf("open draft %s: %w", draftID, err)
	}
	s.tr = input.New(s.eng)
	s.etag = d.ETag

	schedOpts := append(s.schedOpts,
		autosave.WithTransientClassifier(draftstore.IsTransient),
		autosave.WithResultListener(s.onSaveResult),
	)
	s.sched = autosave.NewScheduler(s.saveDraft, schedOpts...)

	if s.journal != nil {
		if err := s.loadRecovered(); err != nil {
			s.log.Warn("recovery journal unreadable", "error", err)
		}
	}

	s.log.Info("session opened", "nodes", s.eng.NodeCount(), "etag", d.ETag)
	return s, nil
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// DraftID returns the id of the draft being edited.
func (s *Session) DraftID() string { return s.draftID }

// Engine returns the document engine.
func (s *Session) Engine() *engine.Engine { return s.eng }

// Metrics returns the session's counter snapshot.
func (s *Session) Metrics() MetricsSnapshot { return s.metrics.Snapshot() }

// SaveState returns the autosave scheduler's current state.
func (s *Session) SaveState() autosave.State { return s.sched.State() }

// LastSaveError returns the most recent save failure, nil after a
// success.
func (s *Session) LastSaveError() error { return s.sched.LastError() }

// Apply executes one edit intent through the operation translator.
func (s *Session) Apply(intent input.Intent) error {
	switch intent.Kind {
	case input.KindUndo:
		s.metrics.RecordUndo()
	case input.KindRedo:
		s.metrics.RecordRedo()
	}
	return s.tr.Apply(intent)
}

// PasteHTML sanitizes untrusted markup and splices the result in at the
// selection. The returned result reports degradation and drop counts
// for user-visible warnings; the paste itself succeeds regardless.
func (s *Session) PasteHTML(markup string) (sanitize.Result, error) {
	return s.paste(sanitize.Sanitize(markup))
}

// PasteMarkdown renders markdown to HTML and pastes it through the same
// sanitizer pipeline.
func (s *Session) PasteMarkdown(src string) (sanitize.Result, error) {
	return s.paste(sanitize.SanitizeMarkdown(src))
}

func (s *Session) paste(res sanitize.Result) (sanitize.Result, error) {
	s.metrics.RecordPaste(res.Dropped)
	if res.Degraded {
		s.log.Warn("paste degraded to plain text")
	} else if res.Dropped > 0 {
		s.log.Warn("paste stripped disallowed elements", "dropped", res.Dropped)
	}
	if err := s.eng.ApplyPastedNodes(res.Nodes); err != nil {
		return res, err
	}
	return res, nil
}

// CopySelection renders the selected content as the two clipboard
// flavors: token-bearing HTML that round-trips citations, and plain
// text.
func (s *Session) CopySelection() (html, text string) {
	sel := s.eng.Selection()
	nodes := nodesInRange(s.eng.Nodes(), sel.Start(), sel.End())
	return sanitize.ExportHTML(nodes), sanitize.ExportText(nodes)
}

// Flush saves immediately, skipping the autosave quiet period.
func (s *Session) Flush(ctx context.Context) error {
	return s.sched.Flush(ctx)
}

// Reload discards local state and replaces the draft with the store's
// current copy: engine, registry, history, and revision tag all reset.
// This is the recovery path for a persistence conflict.
func (s *Session) Reload(ctx context.Context) error {
	d, err := s.store.Fetch(ctx, s.draftID)
	if err != nil {
		return fmt.Errorf("reload draft %s: %w", s.draftID, err)
	}
	nodes, err := node.UnmarshalNodes(d.Nodes)
	if err != nil {
		return fmt.Errorf("reload draft %s: %w", s.draftID, err)
	}
	if err := s.eng.Load(nodes); err != nil {
		return fmt.Errorf("reload draft %s: %w", s.draftID, err)
	}

	s.mu.Lock()
	s.etag = d.ETag
	s.mu.Unlock()
	s.sched.Reset()

	s.log.Info("draft reloaded", "etag", d.ETag)
	return nil
}

// Recovered returns the draft content found in the journal at open
// time, if any. The caller decides between RestoreRecovered and
// DiscardRecovered.
func (s *Session) Recovered() ([]engine.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovered, s.recovered != nil
}

// RestoreRecovered replaces the draft with the journaled content and
// marks it dirty so the next autosave persists it.
func (s *Session) RestoreRecovered() error {
	s.mu.Lock()
	nodes := s.recovered
	s.mu.Unlock()
	if nodes == nil {
		return nil
	}
	if err := s.eng.Load(nodes); err != nil {
		return fmt.Errorf("restore recovered draft: %w", err)
	}
	s.mu.Lock()
	s.recovered = nil
	s.mu.Unlock()
	// Load is silent; the restored content differs from the store.
	s.sched.MarkDirty()
	s.log.Info("recovered draft restored")
	return nil
}

// DiscardRecovered drops the journaled content and clears the entry.
func (s *Session) DiscardRecovered() error {
	s.mu.Lock()
	s.recovered = nil
	s.mu.Unlock()
	if s.journal == nil {
		return nil
	}
	return s.journal.Clear(s.draftID)
}

// Close attempts a final flush of unsaved edits and shuts the scheduler
// down. The flush error is returned but the shutdown always completes;
// a failed final save leaves its content in the journal.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.sched.Flush(ctx)
	s.sched.Close()
	s.log.Info("session closed")
	return err
}

// onEngineChange runs after every successful engine mutation.
func (s *Session) onEngineChange(uint64) {
	s.metrics.RecordEdit()
	s.sched.MarkDirty()
}

// saveDraft is the scheduler's save function.
func (s *Session) saveDraft(ctx context.Context) error {
	data, err := s.eng.Serialize()
	if err != nil {
		return fmt.Errorf("serialize draft %s: %w", s.draftID, err)
	}

	s.mu.Lock()
	etag := s.etag
	s.mu.Unlock()

	newTag, err := s.store.Store(ctx, draftstore.Draft{ID: s.draftID, Nodes: data, ETag: etag})
	if err != nil {
		s.metrics.RecordSaveFailure()
		s.journalWrite(data)
		return err
	}

	s.metrics.RecordSave()
	s.mu.Lock()
	s.etag = newTag
	s.mu.Unlock()
	s.journalClear()
	return nil
}

// onSaveResult logs save outcomes and forwards them to the listener.
func (s *Session) onSaveResult(err error) {
	switch {
	case err == nil:
		s.log.Debug("draft saved")
	case draftstore.IsTransient(err):
		s.log.Warn("save failed, will retry", "error", err)
	default:
		s.log.Error("save failed", "error", err)
	}
	if s.onSave != nil {
		s.onSave(err)
	}
}

func (s *Session) loadRecovered() error {
	data, ok, err := s.journal.Read(s.draftID)
	if err != nil || !ok {
		return err
	}
	nodes, err := node.UnmarshalNodes(data)
	if err != nil {
		return fmt.Errorf("decode journal: %w", err)
	}
	s.recovered = nodes
	s.log.Warn("unsaved draft found in recovery journal", "nodes", len(nodes))
	return nil
}

func (s *Session) journalWrite(data []byte) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Write(s.draftID, data); err != nil {
		s.log.Error("journal write failed", "error", err)
	}
}

func (s *Session) journalClear() {
	if s.journal == nil {
		return
	}
	if err := s.journal.Clear(s.draftID); err != nil {
		s.log.Warn("journal clear failed", "error", err)
	}
}

// nodesInRange extracts the content of [start, end) as a normalized
// node list. Text runs are clipped to the range; a marker is included
// only when its whole span lies inside.
func nodesInRange(nodes []engine.Node, start, end int) []engine.Node {
	var out []engine.Node
	at := 0
	for _, n := range nodes {
		nodeEnd := at + n.Span()
		if nodeEnd > start && at < end {
			switch v := n.(type) {
			case engine.TextRun:
				s := max(start-at, 0)
				t := min(end-at, v.Span())
				if s < t {
					out = append(out, engine.TextRun{Content: v.Content[s:t]})
				}
			case engine.CitationMarker:
				if at >= start && nodeEnd <= end {
					out = append(out, v)
				}
			}
		}
		at = nodeEnd
	}
	return node.Normalize(out)
}
