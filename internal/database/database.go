// Package database opens the stores that hold the port list and the
// marine-zone table.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBPath returns the path to the single shared database
func DBPath() string {
	return filepath.Join("data", "routewatch.db")
}

// Open opens the sqlite database at path, creating its directory if needed.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to :memory: is a fresh database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		// Set pragmas for performance
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			"PRAGMA cache_size=10000",
		} {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("setting %q: %w", pragma, err)
			}
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// TableExists reports whether a table named name exists.
func TableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking for %s table: %w", name, err)
	}
	return count > 0, nil
}

// EnsurePortSchema creates the ports table if it does not exist. Alternative
// names are stored pipe-delimited with leading and trailing pipes so a
// single LIKE can match one whole name.
func EnsurePortSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			locode TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			alternative_names TEXT NOT NULL DEFAULT '',
			active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ports_key ON ports(locode, name);
		CREATE INDEX IF NOT EXISTS idx_ports_name ON ports(name COLLATE NOCASE);
		CREATE INDEX IF NOT EXISTS idx_ports_country ON ports(country);
	`)
	if err != nil {
		return fmt.Errorf("creating ports table: %w", err)
	}
	return nil
}
