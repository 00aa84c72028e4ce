package engine

import "errors"

// Sentinel errors shared by the harvest and synchronization pipelines.
// Callers match them with errors.Is; tool handlers turn them into terse messages.
var (
	// ErrChannelNotFound: the API resolved no channel (or one without a name) for the ID.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrNoMetadata: the document cache holds no metadata document for the channel key.
	ErrNoMetadata = errors.New("no metadata found")
	// ErrInvalidSnapshot: a snapshot lacks its channel ID or name and must not be persisted.
	ErrInvalidSnapshot = errors.New("snapshot missing channel id or name")
	// ErrKeysExhausted: every credential in the pool reported quota exhaustion.
	ErrKeysExhausted = errors.New("all api keys exhausted")
	// ErrTooManyFailures: per-video comment failures crossed the configured threshold.
	ErrTooManyFailures = errors.New("too many comment fetch failures")
	// ErrNotConfigured: a backing service (document store, relational store) is not configured.
	ErrNotConfigured = errors.New("not configured")
)
