package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/assets"
)

const migrationTableSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at DATETIME
);`

// runMigrations applies embedded SQL files not yet recorded in schema_migrations,
// in lexical order, each in its own transaction.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(migrationTableSchema); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	pending, err := pendingMigrations(db)
	if err != nil {
		return err
	}

	for _, version := range pending {
		log.Info().Str("file", version).Msg("Applying journal migration...")
		if err := applyMigration(db, version); err != nil {
			return err
		}
	}

	return nil
}

func pendingMigrations(db *sql.DB) ([]string, error) {
	entries, err := assets.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations dir: %w", err)
	}

	var pending []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		var exists int
		err := db.QueryRow("SELECT 1 FROM schema_migrations WHERE version = ?", name).Scan(&exists)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("failed to check migration %s: %w", name, err)
		}
		pending = append(pending, name)
	}
	slices.Sort(pending)

	return pending, nil
}

func applyMigration(db *sql.DB, version string) error {
	content, err := assets.ReadFile(path.Join("migrations", version))
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", version, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("failed to exec migration %s: %w", version, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", version, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", version, err)
	}

	return tx.Commit()
}
