// Package store persists the edited document and the single-editor lock in
// SQLite, so a restarted server resumes where the last editor left off.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// Keys under which the document fields are stored.
const (
	KeyMarkdown = "resumd.markdown"
	KeyCSS      = "resumd.css"
)

// Lock timings. An editor renews its lock every HeartbeatInterval; a lock
// whose last heartbeat is older than StaleAfter can be taken over.
const (
	HeartbeatInterval = 2 * time.Second
	StaleAfter        = 7 * time.Second
)

// editorLock is the single row name in the locks table.
const editorLock = "editor"

// Sentinel errors for store operations.
var (
	ErrOpen      = errors.New("failed to open store")
	ErrEmptyID   = errors.New("holder id cannot be empty")
	ErrNotStored = errors.New("no document stored")
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS locks (
	name      TEXT PRIMARY KEY,
	holder    TEXT NOT NULL,
	heartbeat INTEGER NOT NULL
);`

// Document is the stored pair of editor fields.
type Document struct {
	Markdown string
	CSS      string
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for lock bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithStaleAfter overrides StaleAfter.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// Store is a SQLite-backed document and lock store.
type Store struct {
	db         *sql.DB
	now        func() time.Time
	staleAfter time.Duration
}

// Open opens (creating if needed) the database at path. An empty path opens
// a private in-memory database.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	// One connection: an in-memory database lives and dies with it, and
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: creating schema: %v", ErrOpen, err)
	}

	s := &Store{db: db, now: time.Now, staleAfter: StaleAfter}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadDocument returns the stored document, or ErrNotStored when neither
// field was ever saved.
func (s *Store) LoadDocument(ctx context.Context) (Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM documents WHERE key IN (?, ?)`, KeyMarkdown, KeyCSS)
	if err != nil {
		return Document{}, fmt.Errorf("loading document: %w", err)
	}
	defer rows.Close()

	var doc Document
	found := false
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Document{}, fmt.Errorf("loading document: %w", err)
		}
		found = true
		switch key {
		case KeyMarkdown:
			doc.Markdown = value
		case KeyCSS:
			doc.CSS = value
		}
	}
	if err := rows.Err(); err != nil {
		return Document{}, fmt.Errorf("loading document: %w", err)
	}
	if !found {
		return Document{}, ErrNotStored
	}
	return doc, nil
}

// SaveDocument stores both fields in one transaction.
func (s *Store) SaveDocument(ctx context.Context, doc Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UnixMilli()
	const upsert = `INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	for _, kv := range [][2]string{{KeyMarkdown, doc.Markdown}, {KeyCSS, doc.CSS}} {
		if _, err := tx.ExecContext(ctx, upsert, kv[0], kv[1], now); err != nil {
			return fmt.Errorf("saving %s: %w", kv[0], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Claim takes the editor lock for holder. It succeeds when the lock is
// free, already held by holder, or stale.
func (s *Store) Claim(ctx context.Context, holder string) (bool, error) {
	if holder == "" {
		return false, ErrEmptyID
	}

	now := s.now()
	stale := now.Add(-s.staleAfter).UnixMilli()
	res, err := s.db.ExecContext(ctx, `INSERT INTO locks (name, holder, heartbeat) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET holder = excluded.holder, heartbeat = excluded.heartbeat
		WHERE locks.holder = excluded.holder OR locks.heartbeat < ?`,
		editorLock, holder, now.UnixMilli(), stale)
	if err != nil {
		return false, fmt.Errorf("claiming editor lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claiming editor lock: %w", err)
	}
	return n == 1, nil
}

// Heartbeat renews holder's lock. It reports false when holder no longer
// owns the lock.
func (s *Store) Heartbeat(ctx context.Context, holder string) (bool, error) {
	if holder == "" {
		return false, ErrEmptyID
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE locks SET heartbeat = ? WHERE name = ? AND holder = ?`,
		s.now().UnixMilli(), editorLock, holder)
	if err != nil {
		return false, fmt.Errorf("renewing editor lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("renewing editor lock: %w", err)
	}
	return n == 1, nil
}

// Release drops holder's lock. Releasing a lock held by someone else is a no-op.
func (s *Store) Release(ctx context.Context, holder string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM locks WHERE name = ? AND holder = ?`, editorLock, holder); err != nil {
		return fmt.Errorf("releasing editor lock: %w", err)
	}
	return nil
}

// Holder returns the current lock holder, or "" when the lock is free or stale.
func (s *Store) Holder(ctx context.Context) (string, error) {
	var holder string
	var beat int64
	err := s.db.QueryRowContext(ctx,
		`SELECT holder, heartbeat FROM locks WHERE name = ?`, editorLock).Scan(&holder, &beat)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading editor lock: %w", err)
	}
	if beat < s.now().Add(-s.staleAfter).UnixMilli() {
		return "", nil
	}
	return holder, nil
}
