package shared

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const memoryDatabase = ":memory:"

// databaseDSN enables foreign keys so run failures cascade with their run, and waits on a
// busy database instead of failing when two invocations overlap.
func databaseDSN(path string) string {
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// NewDatabase opens the run log at path, creating its parent directory when needed.
//
// The path can be ":memory:" for an in-memory database.
func NewDatabase(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	}

	if path != memoryDatabase {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", databaseDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase applies the pool settings from config.
//
// An in-memory database is pinned to one connection since each connection would see its own
// empty database. Non-positive limits keep database/sql defaults.
func ConfigureDatabase(db *sql.DB, config DatabaseConfig) {
	if config.Path == memoryDatabase {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
}
