// Package cache implements the content-addressed compiled-module cache: a
// repeat compile of unchanged source under an unchanged configuration skips
// straight to a stored module. The cache is a pure optimization — a cold
// cache and a warm cache must return identical results, only the work
// differs — grounded on the teacher's server/dao/sqlite package (a
// modernc.org/sqlite-backed store of rezi-encoded records, keyed by
// uuid.UUID rows).
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get on a cache miss.
var ErrNotFound = errors.New("cache: no entry for key")

// Record is a single cached compile result.
type Record struct {
	ID          uuid.UUID
	ModuleText  string
	Diagnostics []string
	CreatedAt   time.Time
	Version     string
}

// Store is the compiled-module cache, backed by a single modernc.org/sqlite
// file (pure Go, no cgo — important since internal/jit already carries the
// repo's one cgo dependency and the cache must stay cgo-free).
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapDBError(err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	const stmt = `CREATE TABLE IF NOT EXISTS modules (
		id TEXT NOT NULL PRIMARY KEY,
		cache_key TEXT NOT NULL UNIQUE,
		record BLOB NOT NULL,
		created INTEGER NOT NULL
	);`
	_, err := s.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Key computes the content-address of a compile: blake2b-256 over the
// source bytes followed by configEncoded, the caller's encoding of the
// settings that affect the result (internal/compiler passes the compiler
// version and the default integer width), so two compiles of the same
// source under different configs (e.g. a different default integer width)
// never collide.
func Key(source []byte, configEncoded []byte) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors for a bad key length, and we pass no
		// key; a sha256 fallback keeps Key total without that impossible
		// error ever surfacing to callers.
		sum := sha256.Sum256(append(source, configEncoded...))
		return base64.URLEncoding.EncodeToString(sum[:])
	}
	h.Write(source)
	h.Write(configEncoded)
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// Get looks up a cached record by its content-address key. Returns
// ErrNotFound on a miss.
func (s *Store) Get(ctx context.Context, key string) (Record, error) {
	var encRecord string
	row := s.db.QueryRowContext(ctx, `SELECT record FROM modules WHERE cache_key = ?;`, key)
	if err := row.Scan(&encRecord); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, wrapDBError(err)
	}

	data, err := base64.StdEncoding.DecodeString(encRecord)
	if err != nil {
		return Record{}, fmt.Errorf("cache: stored record is not valid base64: %w", err)
	}
	var rec Record
	n, err := rezi.DecBinary(data, &rec)
	if err != nil {
		return Record{}, fmt.Errorf("cache: REZI decode: %w", err)
	}
	if n != len(data) {
		return Record{}, fmt.Errorf("cache: REZI decoded byte count mismatch; only consumed %d/%d bytes", n, len(data))
	}
	return rec, nil
}

// Put stores rec under key, replacing any existing entry for that key (a
// config or compiler-version bump invalidates the old entry by producing a
// fresh key, but an identical recompile after a crash should overwrite
// cleanly rather than conflict).
func (s *Store) Put(ctx context.Context, key string, rec Record) error {
	if rec.ID == uuid.Nil {
		newID, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("cache: could not generate ID: %w", err)
		}
		rec.ID = newID
	}
	rec.CreatedAt = time.Now()

	data := rezi.EncBinary(rec)
	encRecord := base64.StdEncoding.EncodeToString(data)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO modules (id, cache_key, record, created) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET record=excluded.record, created=excluded.created;`,
		rec.ID.String(), key, encRecord, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("cache: %w", err)
}
