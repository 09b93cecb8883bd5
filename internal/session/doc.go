// Package session coordinates one editing session: it loads a draft from
// the store into an engine, wires engine mutations to the autosave
// scheduler, runs the sanitizer for clipboard input, and keeps a local
// crash-recovery journal so a failed save never loses typed content.
package session
