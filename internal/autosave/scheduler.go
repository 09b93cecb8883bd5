package autosave

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the scheduler's position in the save cycle.
type State int

const (
	// StateIdle means the draft matches the store.
	StateIdle State = iota

	// StateDirty means unsaved edits exist and the quiet period is
	// running.
	StateDirty

	// StateSaving means a save is in flight.
	StateSaving

	// StateSaveFailed means the last save failed; a retry is armed for
	// transient failures, otherwise the next edit or Flush starts one.
	StateSaveFailed
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	case StateSaveFailed:
		return "save-failed"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by Flush after the scheduler shuts down.
var ErrClosed = errors.New("scheduler is closed")

// DefaultDelay is the quiet period between the last edit and a save.
const DefaultDelay = 5 * time.Second

// SaveFunc persists the current draft. The scheduler calls it from its
// own goroutine, never concurrently with itself.
type SaveFunc func(ctx context.Context) error

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDelay sets the idle quiet period before a save.
func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithBackoff sets the retry curve for transient save failures.
func WithBackoff(b Backoff) Option {
	return func(s *Scheduler) {
		s.backoff = b
	}
}

// WithTransientClassifier sets the predicate that decides whether a
// save error retries automatically. By default every error retries.
func WithTransientClassifier(fn func(error) bool) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.transient = fn
		}
	}
}

// WithStateListener registers a callback for state transitions. It runs
// outside the scheduler lock and must tolerate calls from multiple
// goroutines.
func WithStateListener(fn func(State)) Option {
	return func(s *Scheduler) {
		s.onState = fn
	}
}

// WithResultListener registers a callback for save outcomes, nil on
// success. It runs outside the scheduler lock.
func WithResultListener(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onResult = fn
	}
}

// Scheduler drives background saves from dirty notifications.
type Scheduler struct {
	mu      sync.Mutex
	cond    *sync.Cond
	state   State
	dirty   bool // edits landed during the current save
	attempt int
	lastErr error
	closed  bool

	save      SaveFunc
	delay     time.Duration
	backoff   Backoff
	transient func(error) bool
	onState   func(State)
	onResult  func(error)
	debounce  *Debouncer
	wg        sync.WaitGroup
}

// NewScheduler creates a scheduler around the given save function.
func NewScheduler(save SaveFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		save:      save,
		delay:     DefaultDelay,
		backoff:   DefaultBackoff(),
		transient: func(error) bool { return true },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cond = sync.NewCond(&s.mu)
	s.debounce = NewDebouncer(s.fire)
	return s
}

// MarkDirty records an edit. It arms or resets the quiet period; during
// a save it only flags the dirtiness for the completion re-check.
func (s *Scheduler) MarkDirty() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	switch s.state {
	case StateSaving:
		s.dirty = true
		s.mu.Unlock()
	case StateDirty:
		s.debounce.Schedule(s.delay)
		s.mu.Unlock()
	default:
		s.state = StateDirty
		s.debounce.Schedule(s.delay)
		s.mu.Unlock()
		s.notifyState(StateDirty)
	}
}

// Flush saves now, skipping the quiet period. It waits for an in-flight
// save to finish first and saves again only if the draft is still
// dirty. The error is the save's own outcome.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	for !s.closed && s.state == StateSaving {
		s.cond.Wait()
	}
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state == StateIdle {
		s.mu.Unlock()
		return nil
	}
	s.debounce.Cancel()
	s.beginSaveLocked()
	s.mu.Unlock()
	s.notifyState(StateSaving)
	err := s.save(ctx)
	s.finishSave(err)
	return err
}

// Reset returns the scheduler to Idle, discarding dirtiness, the last
// error, and any armed retry. It waits for an in-flight save to finish
// first. Callers use it after replacing the draft with the store's
// copy, when local state matches the store again by construction.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	for !s.closed && s.state == StateSaving {
		s.cond.Wait()
	}
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.debounce.Cancel()
	changed := s.state != StateIdle
	s.state = StateIdle
	s.dirty = false
	s.attempt = 0
	s.lastErr = nil
	s.mu.Unlock()
	if changed {
		s.notifyState(StateIdle)
	}
}

// Close cancels pending timers and waits for an in-flight save to
// finish. The finished save's result is not applied. Close is
// idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.debounce.Cancel()
	s.cond.Broadcast()
	s.mu.Unlock()
	s.wg.Wait()
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the most recent save failure, nil after a success.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// fire is the debouncer callback for both quiet periods and retries.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed || (s.state != StateDirty && s.state != StateSaveFailed) {
		s.mu.Unlock()
		return
	}
	s.beginSaveLocked()
	s.mu.Unlock()
	s.notifyState(StateSaving)
	s.finishSave(s.save(context.Background()))
}

func (s *Scheduler) beginSaveLocked() {
	s.state = StateSaving
	s.dirty = false
	s.wg.Add(1)
}

func (s *Scheduler) finishSave(err error) {
	defer s.wg.Done()
	s.mu.Lock()
	if s.closed {
		s.cond.Broadcast()
		s.mu.Unlock()
		return
	}
	var next State
	if err == nil {
		s.attempt = 0
		s.lastErr = nil
		if s.dirty {
			next = StateDirty
			s.debounce.Schedule(s.delay)
		} else {
			next = StateIdle
		}
	} else {
		s.lastErr = err
		next = StateSaveFailed
		if s.transient(err) {
			s.attempt++
			s.debounce.Schedule(s.backoff.Delay(s.attempt))
		}
	}
	s.state = next
	s.cond.Broadcast()
	s.mu.Unlock()
	s.notifyState(next)
	if s.onResult != nil {
		s.onResult(err)
	}
}

func (s *Scheduler) notifyState(st State) {
	if s.onState != nil {
		s.onState(st)
	}
}
