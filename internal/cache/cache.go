// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache is an optional on-disk store for provider search
// responses. It is a server-side knob: when disabled (the default)
// every request goes straight to the provider and nothing touches
// disk. Entries are keyed by endpoint and query and expire after a
// configured TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultTTL = 15 * time.Minute

// Store holds cached provider responses in a SQLite database.
type Store struct {
	db  *sql.DB
	ttl time.Duration

	// now is replaced in tests.
	now func() time.Time
}

// Open opens or creates the cache database at path, creating parent
// directories as needed. ttl <= 0 selects the default.
func Open(path string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultTTL
	}

	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		endpoint TEXT NOT NULL,
		query TEXT NOT NULL,
		payload BLOB NOT NULL,
		stored_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Get returns the cached payload for endpoint and query, or ok=false
// when the entry is missing or past its TTL. Expired entries are
// removed on the way out.
func (s *Store) Get(ctx context.Context, endpoint, query string) ([]byte, bool, error) {
	k := key(endpoint, query)

	var payload []byte
	var storedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, stored_at FROM responses WHERE key = ?`, k,
	).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, storedAt)
	if err != nil || s.now().Sub(at) > s.ttl {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE key = ?`, k); err != nil {
			return nil, false, fmt.Errorf("deleting expired entry: %w", err)
		}
		return nil, false, nil
	}
	return payload, true, nil
}

// Put stores the payload for endpoint and query, replacing any
// previous entry.
func (s *Store) Put(ctx context.Context, endpoint, query string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responses (key, endpoint, query, payload, stored_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			payload=excluded.payload, stored_at=excluded.stored_at`,
		key(endpoint, query), endpoint, query, payload,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Prune deletes every entry past its TTL and reports how many went.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl).UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE stored_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return n, nil
}

func key(endpoint, query string) string {
	sum := sha256.Sum256([]byte(endpoint + "\x00" + query))
	return hex.EncodeToString(sum[:])
}
