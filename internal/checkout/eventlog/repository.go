package eventlog

import "context"

// Repository is the port for persisting webhook event entries. The HTTP
// layer depends on this abstraction, not on SQLite directly, so the
// implementation can be swapped for Postgres, in-memory (tests), etc.
type Repository interface {
	// Save appends a new entry; the table is an append-only audit log.
	Save(ctx context.Context, entry *Entry) error

	// LatestForSession returns the most recent entry for a session id.
	// Useful for reconciliation tooling and status endpoints.
	LatestForSession(ctx context.Context, sessionID string) (*Entry, error)
}
