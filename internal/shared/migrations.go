package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var schemaFiles embed.FS

// SchemaVersion is one embedded schema change with its up and down SQL.
//
// Files are named NNNN_description_up.sql / NNNN_description_down.sql.
type SchemaVersion struct {
	Version int
	Up      string
	Down    string
}

// loadSchemaVersions reads the embedded sql directory and returns versions in ascending order.
func loadSchemaVersions() ([]SchemaVersion, error) {
	entries, err := schemaFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	byVersion := make(map[int]*SchemaVersion)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}

		content, err := schemaFiles.ReadFile(path.Join("sql", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %w", name, err)
		}

		v, ok := byVersion[version]
		if !ok {
			v = &SchemaVersion{Version: version}
			byVersion[version] = v
		}

		switch {
		case strings.HasSuffix(name, "_up.sql"):
			v.Up = string(content)
		case strings.HasSuffix(name, "_down.sql"):
			v.Down = string(content)
		}
	}

	versions := make([]SchemaVersion, 0, len(byVersion))
	for _, v := range byVersion {
		if v.Up == "" || v.Down == "" {
			return nil, fmt.Errorf("incomplete schema version %d", v.Version)
		}
		versions = append(versions, *v)
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Version < versions[j].Version
	})
	return versions, nil
}

// RunMigrations applies every schema version not yet recorded in schema_migrations.
func RunMigrations(db *sql.DB) error {
	versions, err := loadSchemaVersions()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, v := range versions {
		var applied bool
		if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", v.Version).Scan(&applied); err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if applied {
			continue
		}

		if err := execScript(db, v.Up, "INSERT INTO schema_migrations (version) VALUES (?)", v.Version); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", v.Version, err)
		}
	}

	return nil
}

// RollbackMigration reverts the most recently applied schema version.
func RollbackMigration(db *sql.DB) error {
	versions, err := loadSchemaVersions()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	var current sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if !current.Valid {
		return fmt.Errorf("no migrations to rollback")
	}

	for _, v := range versions {
		if int64(v.Version) == current.Int64 {
			if err := execScript(db, v.Down, "DELETE FROM schema_migrations WHERE version = ?", v.Version); err != nil {
				return fmt.Errorf("failed to rollback migration %d: %w", v.Version, err)
			}
			return nil
		}
	}

	return fmt.Errorf("migration version %d not found", current.Int64)
}

// execScript runs each statement of script and then the bookkeeping statement in one transaction.
func execScript(db *sql.DB, script, record string, version int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stripComments(stmt))
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}

	if _, err := tx.Exec(record, version); err != nil {
		return err
	}
	return tx.Commit()
}

// stripComments drops "--" line comments and blank lines.
func stripComments(stmt string) string {
	var lines []string
	for _, line := range strings.Split(stmt, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
