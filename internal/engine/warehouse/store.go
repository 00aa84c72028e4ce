// Package warehouse migrates cached channel snapshots into relational tables
// with per-entity upsert rules.
package warehouse

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Dialect selects placeholder syntax and parameter limits.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

func (d Dialect) String() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "postgres"
}

// placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) placeholder(n int) string {
	if d == DialectSQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// maxParams bounds bind parameters per statement.
func (d Dialect) maxParams() int {
	if d == DialectSQLite {
		return 999
	}
	return 65535
}

// Execer runs one statement inside a transaction.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// Store is a relational database that runs work in a single transaction.
type Store interface {
	Dialect() Dialect
	// InTx commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Execer) error) error
	Close() error
}

// schemaStatements returns the embedded schema split into statements, in file order.
func schemaStatements() ([]string, error) {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var stmts []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		for _, s := range strings.Split(string(data), ";") {
			if s = strings.TrimSpace(s); s != "" {
				stmts = append(stmts, s)
			}
		}
	}
	return stmts, nil
}

// ensureSchema creates the tables if absent.
func ensureSchema(ctx context.Context, tx Execer) error {
	stmts, err := schemaStatements()
	if err != nil {
		return err
	}
	for _, s := range stmts {
		if err := tx.Exec(ctx, s); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
