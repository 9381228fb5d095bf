package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS kv_entries (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)
`

// SQLiteStore keeps the layout in a single sqlite file, the on-disk
// counterpart of the browser's local storage.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path. Write
// transactions start with BEGIN IMMEDIATE so two processes sharing the file
// serialize their read-modify-write cycles.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func txReader(tx *sql.Tx) readFunc {
	return func(ctx context.Context, key string) ([]byte, bool, error) {
		var value []byte
		err := tx.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
		}
		return value, true, nil
	}
}

func (s *SQLiteStore) View(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	tx := newStagedTx(txReader(sqlTx))
	if err := fn(tx); err != nil {
		return err
	}
	if tx.dirty() {
		return ErrReadOnly
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	tx := newStagedTx(txReader(sqlTx))
	if err := fn(tx); err != nil {
		return err
	}

	for key, value := range tx.writes {
		if value == nil {
			if _, err := sqlTx.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
				return fmt.Errorf("failed to delete key %q: %w", key, err)
			}
			continue
		}
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO kv_entries (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			return fmt.Errorf("failed to write key %q: %w", key, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
