package store

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type sqliteKV struct {
	db *sql.DB
}

var _ KV = (*sqliteKV)(nil)

// NewSQLite returns a KV engine backed by SQLite at dbPath. If dbPath is
// empty or ":memory:", an in-memory database is used. Entries live in a
// single table (key TEXT PRIMARY KEY, payload TEXT, stored_at INTEGER
// millis); no expiry bookkeeping happens here since freshness is computed at
// read time.
func NewSQLite(ctx context.Context, dbPath string) (KV, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL keeps concurrent readers from blocking the writer.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		stored_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteKV{db: db}, nil
}

func (s *sqliteKV) Get(ctx context.Context, key string) (Entry, bool, error) {
	var payload string
	var storedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, stored_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&payload, &storedAt)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return Entry{Key: key, Payload: []byte(payload), StoredAt: time.UnixMilli(storedAt)}, true, nil
}

func (s *sqliteKV) Put(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, payload, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		e.Key, string(e.Payload), e.StoredAt.UnixMilli(),
	)
	return err
}

func (s *sqliteKV) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

func (s *sqliteKV) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	return err
}

func (s *sqliteKV) Close() error {
	return s.db.Close()
}
