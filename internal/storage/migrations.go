package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.0.0"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Categories table
CREATE TABLE IF NOT EXISTS categories (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name_en     TEXT NOT NULL COLLATE NOCASE CHECK (trim(name_en) <> ''),
    name_ru     TEXT,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_on  TIMESTAMP
);

-- Uniqueness applies only among active rows; a deleted row does not block
-- reuse of its name
CREATE UNIQUE INDEX IF NOT EXISTS uq_categories_name_en_active
    ON categories(name_en COLLATE NOCASE)
    WHERE deleted_on IS NULL;
CREATE INDEX IF NOT EXISTS idx_categories_deleted_on ON categories(deleted_on);

-- Terms table
CREATE TABLE IF NOT EXISTS terms (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    category_id INTEGER NOT NULL,
    en          TEXT NOT NULL COLLATE NOCASE CHECK (trim(en) <> ''),
    abbr_en     TEXT,
    ru          TEXT NOT NULL CHECK (trim(ru) <> ''),
    abbr_ru     TEXT,
    descr_en    TEXT,
    descr_ru    TEXT,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_on  TIMESTAMP,
    FOREIGN KEY (category_id)
        REFERENCES categories(id)
        ON UPDATE RESTRICT
        ON DELETE RESTRICT
);

CREATE INDEX IF NOT EXISTS idx_terms_category_id ON terms(category_id);
CREATE INDEX IF NOT EXISTS idx_terms_deleted_on ON terms(deleted_on);
CREATE UNIQUE INDEX IF NOT EXISTS uq_terms_category_en_active
    ON terms(category_id, en COLLATE NOCASE)
    WHERE deleted_on IS NULL;

-- Commands table
CREATE TABLE IF NOT EXISTS commands (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    category_id INTEGER NOT NULL,
    title       TEXT NOT NULL COLLATE NOCASE CHECK (trim(title) <> ''),
    descr_en    TEXT,
    descr_ru    TEXT,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_on  TIMESTAMP,
    FOREIGN KEY (category_id)
        REFERENCES categories(id)
        ON UPDATE RESTRICT
        ON DELETE RESTRICT
);

CREATE INDEX IF NOT EXISTS idx_commands_category_id ON commands(category_id);
CREATE INDEX IF NOT EXISTS idx_commands_deleted_on ON commands(deleted_on);
CREATE UNIQUE INDEX IF NOT EXISTS uq_commands_category_title_active
    ON commands(category_id, title COLLATE NOCASE)
    WHERE deleted_on IS NULL;

-- Examples table; removed together with their command
CREATE TABLE IF NOT EXISTS examples (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    command_id  INTEGER NOT NULL,
    title       TEXT NOT NULL COLLATE NOCASE CHECK (trim(title) <> ''),
    descr_en    TEXT,
    descr_ru    TEXT,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_on  TIMESTAMP,
    FOREIGN KEY (command_id)
        REFERENCES commands(id)
        ON UPDATE RESTRICT
        ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_examples_command_id ON examples(command_id);
CREATE INDEX IF NOT EXISTS idx_examples_deleted_on ON examples(deleted_on);
CREATE UNIQUE INDEX IF NOT EXISTS uq_examples_command_title_active
    ON examples(command_id, title COLLATE NOCASE)
    WHERE deleted_on IS NULL;

-- Full-text index over term text fields. The column order is the highlight
-- field order: 0 = en, 1 = ru. Postings are maintained by explicit
-- application code inside each term mutation transaction, not by triggers;
-- rowid is the term id.
CREATE VIRTUAL TABLE IF NOT EXISTS terms_fts USING fts5(
    en, ru, abbr_en, abbr_ru, descr_en, descr_ru,
    tokenize='unicode61 remove_diacritics 2'
);
`

const migrationV1Down = `
DROP TABLE IF EXISTS terms_fts;
DROP TABLE IF EXISTS examples;
DROP TABLE IF EXISTS commands;
DROP TABLE IF EXISTS terms;
DROP TABLE IF EXISTS categories;
DROP TABLE IF EXISTS schema_version;
`

// ApplyMigrations runs all pending migrations
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	// Check if schema_version table exists
	var tableName string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)

	// Parse current version (default to 0.0.0 if no migrations applied)
	var currentVersion *semver.Version
	if err == sql.ErrNoRows {
		currentVersion = semver.MustParse("0.0.0")
	} else if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	} else {
		var currentVersionStr string
		err = db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersionStr)
		if err == sql.ErrNoRows || currentVersionStr == "" {
			currentVersion = semver.MustParse("0.0.0")
		} else if err != nil {
			return fmt.Errorf("failed to read schema_version: %w", err)
		} else {
			currentVersion, err = semver.NewVersion(currentVersionStr)
			if err != nil {
				return fmt.Errorf("invalid current schema version %s: %w", currentVersionStr, err)
			}
		}
	}

	// Run migrations in order
	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		if !currentVersion.LessThan(migrationVersion) {
			continue // Already applied
		}

		if _, err = db.ExecContext(ctx, migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}

		if _, err = db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		currentVersion = migrationVersion
	}

	return nil
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	var currentVersion string
	err := db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("no migrations to rollback: %w", err)
	}

	var migration *Migration
	for i := range AllMigrations {
		if AllMigrations[i].Version == currentVersion {
			migration = &AllMigrations[i]
			break
		}
	}

	if migration == nil {
		return fmt.Errorf("migration %s not found", currentVersion)
	}

	if _, err = db.ExecContext(ctx, migration.Down); err != nil {
		return fmt.Errorf("failed to rollback migration %s: %w", currentVersion, err)
	}

	// The version record may have been dropped with the schema; ignore a
	// missing table here
	_, _ = db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", currentVersion)

	return nil
}
