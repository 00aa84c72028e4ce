package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLite is a Store on an embedded database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path with foreign keys enforced.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("warehouse: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("warehouse: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("warehouse: enable foreign keys: %w", err)
	}
	return &SQLite{db: db}, nil
}

// DB exposes the underlying handle for read queries.
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Dialect() Dialect { return DialectSQLite }

func (s *SQLite) InTx(ctx context.Context, fn func(ctx context.Context, tx Execer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(ctx, sqlExec{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type sqlExec struct {
	tx *sql.Tx
}

func (e sqlExec) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.tx.ExecContext(ctx, query, args...)
	return err
}
