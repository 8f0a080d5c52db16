// Package store provides the TTL-aware cache store: a keyed mapping from
// request key to cached payload plus storage timestamp, layered over an
// opaque KV engine. Entries are never expired in storage; freshness is a
// read-time computation (Valid).
package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/netstash/netstash/outcome"
)

// Entry is one cached response. At most one entry exists per key
// (insert-or-replace semantics).
type Entry struct {
	Key      string
	Payload  []byte
	StoredAt time.Time
}

// KV is the opaque storage engine behind the store. Implementations must be
// safe for concurrent use; operations on different keys must not block each
// other. Get reports absence as (zero, false, nil), never as an error.
type KV interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, e Entry) error
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
	Close() error
}

// Valid reports whether e is still fresh at now for the given ttl. The
// boundary is strict: an entry exactly ttl old is stale.
func Valid(e Entry, ttl time.Duration, now time.Time) bool {
	return now.Sub(e.StoredAt) < ttl
}

// Store wraps a KV engine. Engine faults surface as outcome.Error values
// with CauseCache so callers can recover (a failed read is a miss, a failed
// write does not fail the request that produced the payload).
type Store struct {
	kv  KV
	log zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for engine fault reporting.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New returns a Store over the given engine.
func New(kv KV, opts ...Option) *Store {
	s := &Store{kv: kv, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the entry for key. Absence is (zero, false, nil).
func (s *Store) Get(ctx context.Context, key string) (Entry, bool, error) {
	e, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return Entry{}, false, outcome.Wrap(outcome.CauseCache, "cache read failed", err)
	}
	return e, found, nil
}

// Put inserts or replaces the entry for key. Idempotent under identical
// arguments.
func (s *Store) Put(ctx context.Context, key string, payload []byte, now time.Time) error {
	err := s.kv.Put(ctx, Entry{Key: key, Payload: payload, StoredAt: now})
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		return outcome.Wrap(outcome.CauseCache, "cache write failed", err)
	}
	return nil
}

// Delete removes the entry for key, if any. Fully effective on return.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		return outcome.Wrap(outcome.CauseCache, "cache delete failed", err)
	}
	return nil
}

// DeleteAll removes every entry. Fully effective on return.
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.kv.DeleteAll(ctx); err != nil {
		return outcome.Wrap(outcome.CauseCache, "cache clear failed", err)
	}
	return nil
}

// Close releases the engine.
func (s *Store) Close() error {
	return s.kv.Close()
}
