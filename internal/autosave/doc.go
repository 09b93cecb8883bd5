// Package autosave schedules background draft saves.
//
// The scheduler is a small state machine driven by dirty notifications
// from the editing engine. Edits mark the draft dirty and arm a quiet
// period; when the user stops typing the save function runs, at most one
// at a time. Edits that land during a save are not lost: dirtiness is
// re-checked when the save completes and the timer re-arms.
//
// Failures split in two. Transient failures (network, 5xx) retry on a
// capped exponential backoff with jitter. Terminal failures (conflict,
// missing draft) are surfaced to the result listener and never retried
// on their own; the next edit or an explicit Flush starts a fresh
// attempt. Typed content stays in the engine either way.
package autosave
