// Package storage keeps the notification journal in SQLite: connection setup,
// embedded schema migrations and journal queries.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/woozymasta/vsrelay/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Record appends a processed notification to the journal.
func (r *Repository) Record(e models.JournalEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO notifications (created_at, kind, outcome, title, detail) VALUES (?, ?, ?, ?, ?)`,
		e.CreatedAt.UTC(), e.Kind, e.Outcome, e.Title, e.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (r *Repository) Recent(limit int) ([]models.JournalEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.Query(`
		SELECT id, created_at, kind, outcome, title, detail
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Kind, &e.Outcome, &e.Title, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// CountByOutcome returns how many entries of each outcome were recorded since the given time.
func (r *Repository) CountByOutcome(since time.Time) (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT outcome, COUNT(*)
		FROM notifications
		WHERE created_at >= ?
		GROUP BY outcome
	`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}

	return counts, rows.Err()
}

// PruneOlderThan removes entries created before the cutoff and returns how many were deleted.
func (r *Repository) PruneOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM notifications WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
