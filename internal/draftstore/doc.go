// Package draftstore talks to the draft-storage service.
//
// The wire body is the canonical tagged node array; the revision rides
// out-of-band as an ETag, echoed back as If-Match on writes so a stale
// save surfaces as ErrConflict instead of clobbering newer content.
// Network failures and 5xx responses wrap in TransientError, which the
// autosave scheduler treats as retryable; everything else is terminal.
package draftstore
