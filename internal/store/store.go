// Package store is gh's local SQLite database. It caches API responses for
// conditional requests and keeps small bits of state between runs.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the raw sql.DB for direct queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) migrate() error {
	migrations := []string{
		// Conditional-request cache keyed by request identity.
		`CREATE TABLE IF NOT EXISTS http_cache (
			key TEXT PRIMARY KEY,
			etag TEXT NOT NULL,
			content_type TEXT DEFAULT '',
			body BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// CacheEntry is a stored response body and its validator.
type CacheEntry struct {
	ETag        string
	ContentType string
	Body        []byte
	UpdatedAt   time.Time
}

// GetCached returns the entry for key. ok is false when there is none.
func (db *DB) GetCached(key string) (entry CacheEntry, ok bool, err error) {
	var updated int64
	err = db.conn.QueryRow(
		`SELECT etag, content_type, body, updated_at FROM http_cache WHERE key = ?`, key,
	).Scan(&entry.ETag, &entry.ContentType, &entry.Body, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("reading cache: %w", err)
	}
	entry.UpdatedAt = time.Unix(updated, 0)
	return entry, true, nil
}

// PutCached stores or replaces the entry for key. A zero UpdatedAt means now.
func (db *DB) PutCached(key string, entry CacheEntry) error {
	updated := entry.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := db.conn.Exec(
		`INSERT INTO http_cache (key, etag, content_type, body, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			etag = excluded.etag,
			content_type = excluded.content_type,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		key, entry.ETag, entry.ContentType, entry.Body, updated.Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// PruneCache deletes entries not refreshed since before.
func (db *DB) PruneCache(before time.Time) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM http_cache WHERE updated_at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}

// Get returns a kv value, or "" when the key is missing.
func (db *DB) Get(key string) (string, error) {
	var v sql.NullString
	err := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return v.String, nil
}

// Set stores a kv value.
func (db *DB) Set(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
