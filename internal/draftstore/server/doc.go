// Package server is a reference draft store for local development and
// integration tests. It speaks the same protocol the client does: draft
// bodies are the canonical node array, revisions ride as ETags, and
// If-Match makes writes conditional. Drafts persist in a single SQLite
// file.
package server
