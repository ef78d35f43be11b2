// Package sqlite provides a SQLite-backed implementation of
// eventlog.Repository.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa — the webhook handler writes while reconciliation tooling may be
// reading.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/eventlog"

	// Register the pure-Go SQLite driver.
	// We use modernc.org/sqlite instead of mattn/go-sqlite3 to avoid CGO
	// requirements, making it easier to build and run in Docker (Alpine).
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup.
// The table is append-only: each row is an immutable record of one webhook
// delivery. Querying the newest row per session_id gives the current state.
const schema = `
CREATE TABLE IF NOT EXISTS webhook_events (
    -- Surrogate primary key — auto-incremented by SQLite.
    id          INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Provider event identifier. Not UNIQUE: the provider may redeliver the
    -- same event and each delivery gets its own row.
    event_id    TEXT NOT NULL,

    -- Provider event type string, e.g. "checkout.session.completed".
    event_type  TEXT NOT NULL,

    -- Checkout session the event refers to. Empty for sessionless types.
    session_id  TEXT NOT NULL DEFAULT '',

    -- Processing outcome: IGNORED / RECORDED / DUPLICATE / FAILED.
    status      TEXT NOT NULL,

    -- Failure detail for FAILED rows.
    error       TEXT NOT NULL DEFAULT '',

    -- W3C trace_id (32 hex chars) from the active OTel span.
    trace_id    TEXT NOT NULL DEFAULT '',

    -- W3C span_id (16 hex chars).
    span_id     TEXT NOT NULL DEFAULT '',

    -- Wall-clock timestamp (RFC3339 stored as TEXT, SQLite idiom).
    received_at TEXT NOT NULL
);

-- Index for the reconciliation query: "what happened to session X?".
CREATE INDEX IF NOT EXISTS idx_webhook_events_session_id ON webhook_events(session_id, received_at);

-- Index for the observability query: "find the delivery for trace Y".
CREATE INDEX IF NOT EXISTS idx_webhook_events_trace_id ON webhook_events(trace_id);
`

// Repository is the SQLite implementation of eventlog.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema. WAL mode is enabled for better concurrent read/write
// performance.
//
//	repo, err := sqlite.Open("./data/webhook-events.db")
func Open(path string) (*Repository, error) {
	// The pure-Go driver uses _pragma query parameters to configure connection state.
	// WAL enables concurrent readers. busy_timeout waits for locks instead of
	// failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3" for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (r *Repository) Close() error {
	return r.db.Close()
}

// Save inserts a new event entry. It is safe to call concurrently.
func (r *Repository) Save(ctx context.Context, entry *eventlog.Entry) error {
	const q = `
		INSERT INTO webhook_events
			(event_id, event_type, session_id, status, error, trace_id, span_id, received_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.EventID,
		entry.EventType,
		entry.SessionID,
		string(entry.Status),
		entry.Error,
		entry.TraceID,
		entry.SpanID,
		entry.ReceivedAt.UTC().Format("2006-01-02T15:04:05.999999999Z"),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save event %q: %w", entry.EventID, err)
	}
	return nil
}

// LatestForSession returns the most recent entry for a session id.
func (r *Repository) LatestForSession(ctx context.Context, sessionID string) (*eventlog.Entry, error) {
	const q = `
		SELECT event_id, event_type, session_id, status, error, trace_id, span_id, received_at
		FROM   webhook_events
		WHERE  session_id = ?
		ORDER  BY received_at DESC, id DESC
		LIMIT  1`

	row := r.db.QueryRowContext(ctx, q, sessionID)

	var entry eventlog.Entry
	var receivedAt string
	err := row.Scan(
		&entry.EventID,
		&entry.EventType,
		&entry.SessionID,
		&entry.Status,
		&entry.Error,
		&entry.TraceID,
		&entry.SpanID,
		&receivedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sqlite: no events for session %q", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: latest for session %q: %w", sessionID, err)
	}

	entry.ReceivedAt, err = parseRFC3339(receivedAt)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// applySchema runs the DDL statements once. Idempotent due to IF NOT EXISTS.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}
