// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists reviews, linked papers, screening decisions,
// extraction records, themes, and cached reliability metrics in SQLite.
//
// The store assumes a single writer. Open takes an exclusive advisory lock
// next to the database file so a second process fails fast instead of
// interleaving writes.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

//go:embed schema.sql
var schemaSQL string

var (
	// ErrNotFound is returned when a review, theme, or other row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateDecision is returned when a reviewer already decided on a
	// paper at the same stage.
	ErrDuplicateDecision = errors.New("duplicate screening decision")

	// ErrDuplicateExtraction is returned when a reviewer already extracted
	// data from a paper in the same review.
	ErrDuplicateExtraction = errors.New("duplicate extraction")

	// ErrLocked is returned by Open when another process holds the database.
	ErrLocked = errors.New("database is locked by another process")

	// ErrInvalidParent is returned when a parent theme belongs to another review.
	ErrInvalidParent = errors.New("parent theme belongs to a different review")
)

// Store manages the review SQLite database.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens or creates the review database at path and applies the schema.
// Pass MemoryPath for a throwaway database (no lock is taken).
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	dsn := MemoryPath
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}

		lock := flock.New(path + ".lock")
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("locking database: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w", path, ErrLocked)
		}
		s.lock = lock
		dsn = path
	}

	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		s.unlock()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: in-memory databases are per connection, and the store
	// has a single writer anyway.
	db.SetMaxOpenConns(1)
	s.db = db

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		s.unlock()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection and the writer lock.
func (s *Store) Close() error {
	err := s.db.Close()
	s.unlock()
	return err
}

func (s *Store) unlock() {
	if s.lock != nil {
		s.lock.Unlock()
		s.lock = nil
	}
}

func (s *Store) timestamp() string {
	return formatTime(s.now())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		// Rows written by other tools may use RFC 3339 or SQLite's default.
		if t, err = time.Parse(time.RFC3339Nano, v); err != nil {
			t, _ = time.Parse("2006-01-02 15:04:05", v)
		}
	}
	return t
}

func constraintCode(err error) sqlite3.ErrNoExtended {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode
	}
	return 0
}

func isUniqueViolation(err error) bool {
	code := constraintCode(err)
	return code == sqlite3.ErrConstraintUnique || code == sqlite3.ErrConstraintPrimaryKey
}

func isForeignKeyViolation(err error) bool {
	return constraintCode(err) == sqlite3.ErrConstraintForeignKey
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// insert runs an INSERT and returns the generated row id.
func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
