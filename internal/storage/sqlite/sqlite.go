// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/toastmixer/internal/models"
	"github.com/mmynk/toastmixer/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection, not just the first.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DataVersion returns the persisted change counter.
func (s *SQLiteStore) DataVersion(ctx context.Context) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		"SELECT data_version FROM roster_meta WHERE id = 1",
	).Scan(&version)
	if err != nil {
		return 0, &storage.StoreError{Op: "read data version", Err: err}
	}
	return version, nil
}

// withTx runs fn in a transaction. When fn reports a change the data version
// is bumped in the same transaction. Any error rolls everything back.
func (s *SQLiteStore) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) (bool, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &storage.StoreError{Op: op, Err: fmt.Errorf("begin transaction: %w", err)}
	}
	defer tx.Rollback()

	changed, err := fn(tx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return &storage.StoreError{Op: op, Err: err}
	}

	if changed {
		if _, err := tx.ExecContext(ctx,
			"UPDATE roster_meta SET data_version = data_version + 1 WHERE id = 1",
		); err != nil {
			return &storage.StoreError{Op: op, Err: fmt.Errorf("bump data version: %w", err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &storage.StoreError{Op: op, Err: fmt.Errorf("commit transaction: %w", err)}
	}
	return nil
}

// targetsCTE builds a "targets(name, birth)" common table expression holding
// keys, so a single query can join against an arbitrary key set.
func targetsCTE(keys []models.ParticipantKey) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("WITH targets(name, birth) AS (VALUES ")

	args := make([]interface{}, 0, len(keys)*2)
	for i, key := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?)")
		args = append(args, key.Name, key.BirthDate)
	}
	b.WriteString(")\n")

	return b.String(), args
}

// uniqueKeys drops repeated keys, keeping first occurrences in order.
func uniqueKeys(keys []models.ParticipantKey) []models.ParticipantKey {
	seen := make(map[models.ParticipantKey]bool, len(keys))
	out := make([]models.ParticipantKey, 0, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// rowsAffected reports whether res touched at least one row.
func rowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read rows affected: %w", err)
	}
	return n > 0, nil
}
