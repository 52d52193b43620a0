package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/opendata-tw/budget-linebot-go/internal/knowledge"
)

// SnapshotRepository stores and restores the knowledge source snapshot.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a repository over db.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// ReplaceEntries atomically replaces the stored entry snapshot.
func (r *SnapshotRepository) ReplaceEntries(ctx context.Context, entries []knowledge.Entry) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (keyword, year, description, unit, source_url, source_name, snapshotted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Keyword, e.Year, e.Description, e.Unit, e.SourceURL, e.SourceName, now); err != nil {
			return fmt.Errorf("failed to insert entry %q: %w", e.Keyword, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}
	return nil
}

// ListEntries returns the stored entry snapshot.
func (r *SnapshotRepository) ListEntries(ctx context.Context) ([]knowledge.Entry, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT keyword, year, description, unit, source_url, source_name
		FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []knowledge.Entry
	for rows.Next() {
		var e knowledge.Entry
		if err := rows.Scan(&e.Keyword, &e.Year, &e.Description, &e.Unit, &e.SourceURL, &e.SourceName); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

// ReplaceChanges atomically replaces the stored change snapshot.
func (r *SnapshotRepository) ReplaceChanges(ctx context.Context, changes []knowledge.ChangeEntry) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM changes"); err != nil {
		return fmt.Errorf("failed to clear changes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO changes (keyword, year, value, unit, snapshotted_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()
	for _, c := range changes {
		if _, err := stmt.ExecContext(ctx, c.Keyword, c.Year, c.Value, c.Unit, now); err != nil {
			return fmt.Errorf("failed to insert change %q/%d: %w", c.Keyword, c.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit changes: %w", err)
	}
	return nil
}

// ListChanges returns the stored change snapshot.
func (r *SnapshotRepository) ListChanges(ctx context.Context) ([]knowledge.ChangeEntry, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT keyword, year, value, unit FROM changes ORDER BY keyword, year`)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var changes []knowledge.ChangeEntry
	for rows.Next() {
		var c knowledge.ChangeEntry
		if err := rows.Scan(&c.Keyword, &c.Year, &c.Value, &c.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate changes: %w", err)
	}
	return changes, nil
}

// Counts returns the stored row counts for readiness and metrics.
func (r *SnapshotRepository) Counts(ctx context.Context) (entries, changes int, err error) {
	if err = r.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&entries); err != nil {
		return 0, 0, fmt.Errorf("failed to count entries: %w", err)
	}
	if err = r.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM changes").Scan(&changes); err != nil {
		return 0, 0, fmt.Errorf("failed to count changes: %w", err)
	}
	return entries, changes, nil
}

// SnapshotAge returns how old the stored entry snapshot is. sql.ErrNoRows
// is returned when no snapshot has ever been stored.
func (r *SnapshotRepository) SnapshotAge(ctx context.Context) (time.Duration, error) {
	var at int64
	err := r.db.conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(snapshotted_at), 0) FROM entries").Scan(&at)
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot time: %w", err)
	}
	if at == 0 {
		return 0, sql.ErrNoRows
	}
	return time.Since(time.Unix(at, 0)), nil
}
