package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migration is one embedded schema change of the run log.
//
// Files are named <version>_<name>_up.sql and <version>_<name>_down.sql.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Migrator applies and reverts the embedded migrations, logging each step.
type Migrator struct {
	db     *sql.DB
	logger *log.Logger
}

// NewMigrator returns a [Migrator] for db. A nil logger discards output.
func NewMigrator(db *sql.DB, logger *log.Logger) *Migrator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Migrator{db: db, logger: logger}
}

// RunMigrations applies every pending migration without logging.
func RunMigrations(db *sql.DB) error {
	_, err := NewMigrator(db, nil).Up()
	return err
}

// parseMigrationName splits "0000_create_runs_up.sql" into (0, "create_runs", "up").
func parseMigrationName(name string) (version int, label, direction string, ok bool) {
	base, found := strings.CutSuffix(name, ".sql")
	if !found {
		return 0, "", "", false
	}

	switch {
	case strings.HasSuffix(base, "_up"):
		direction, base = "up", strings.TrimSuffix(base, "_up")
	case strings.HasSuffix(base, "_down"):
		direction, base = "down", strings.TrimSuffix(base, "_down")
	default:
		return 0, "", "", false
	}

	prefix, label, found := strings.Cut(base, "_")
	if !found {
		return 0, "", "", false
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", "", false
	}
	return version, label, direction, true
}

// loadMigrations reads the embedded scripts sorted by version.
func loadMigrations() ([]Migration, error) {
	entries, err := migrationFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		version, label, direction, ok := parseMigrationName(entry.Name())
		if !ok {
			continue
		}

		content, err := migrationFiles.ReadFile(path.Join("sql", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: label}
			byVersion[version] = m
		}
		if direction == "up" {
			m.Up = string(content)
		} else {
			m.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", m.Version)
		}
		migrations = append(migrations, *m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Up applies pending migrations in version order and returns how many ran.
func (m *Migrator) Up() (int, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return 0, fmt.Errorf("failed to load migrations: %w", err)
	}

	if err := m.createMigrationsTable(); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := 0
	for _, migration := range migrations {
		var exists bool
		err := m.db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", migration.Version).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			m.logger.Debug("migration already applied", "version", migration.Version, "name", migration.Name)
			continue
		}

		if err := m.exec(migration.Up, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", migration.Version, migration.Name); err != nil {
			return applied, fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		m.logger.Info("applied migration", "version", migration.Version, "name", migration.Name)
		applied++
	}

	return applied, nil
}

// Down reverts the newest applied migration and returns it.
func (m *Migrator) Down() (Migration, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return Migration{}, fmt.Errorf("failed to load migrations: %w", err)
	}

	current, err := m.Version()
	if err != nil {
		return Migration{}, err
	}
	if current < 0 {
		return Migration{}, ErrNoMigrations
	}

	for _, migration := range migrations {
		if migration.Version != current {
			continue
		}
		if err := m.exec(migration.Down, "DELETE FROM schema_migrations WHERE version = ?", migration.Version); err != nil {
			return Migration{}, fmt.Errorf("failed to roll back migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		m.logger.Info("rolled back migration", "version", migration.Version, "name", migration.Name)
		return migration, nil
	}

	return Migration{}, fmt.Errorf("migration version %d not found", current)
}

// Version returns the newest applied migration version, or -1 when none is applied.
func (m *Migrator) Version() (int, error) {
	if err := m.createMigrationsTable(); err != nil {
		return -1, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var version int
	if err := m.db.QueryRow("SELECT COALESCE(MAX(version), -1) FROM schema_migrations").Scan(&version); err != nil {
		return -1, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

func (m *Migrator) createMigrationsTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// exec runs script statement by statement, then the bookkeeping query, in one transaction.
func (m *Migrator) exec(script, bookkeeping string, args ...any) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}

	if _, err := tx.Exec(bookkeeping, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// splitStatements drops "--" comments and blank lines and splits script on semicolons.
func splitStatements(script string) []string {
	var statements []string
	for _, raw := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			if idx := strings.Index(line, "--"); idx >= 0 {
				line = line[:idx]
			}
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
