package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(db *sql.DB) error {
	if err := createEntriesTable(db); err != nil {
		return err
	}
	return createChangesTable(db)
}

func createEntriesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword TEXT NOT NULL,
		year INTEGER,
		description TEXT NOT NULL,
		unit TEXT,
		source_url TEXT,
		source_name TEXT,
		snapshotted_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_keyword ON entries(keyword);
	CREATE INDEX IF NOT EXISTS idx_entries_year ON entries(year);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create entries table: %w", err)
	}
	return nil
}

func createChangesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS changes (
		keyword TEXT NOT NULL,
		year INTEGER NOT NULL,
		value REAL NOT NULL,
		unit TEXT,
		snapshotted_at INTEGER NOT NULL,
		PRIMARY KEY (keyword, year)
	);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create changes table: %w", err)
	}
	return nil
}
