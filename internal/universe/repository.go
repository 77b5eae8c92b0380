package universe

import (
	"context"
	"fmt"
	"time"

	"github.com/openlux/luxd/internal/infrastructure/database"
)

// SQLiteRepository persists universe records in the universes table.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a repository backed by the given database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List returns all persisted universes ordered by ID.
func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, merge_mode FROM universes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying universes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var mode string
		if err := rows.Scan(&rec.ID, &rec.Name, &mode); err != nil {
			return nil, fmt.Errorf("scanning universe row: %w", err)
		}
		rec.MergeMode = MergeMode(mode)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating universe rows: %w", err)
	}

	return records, nil
}

// Save inserts or updates a universe record.
func (r *SQLiteRepository) Save(ctx context.Context, rec Record) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO universes (id, name, merge_mode, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   merge_mode = excluded.merge_mode,
		   updated_at = excluded.updated_at`,
		rec.ID, rec.Name, string(rec.MergeMode), now, now)
	if err != nil {
		return fmt.Errorf("saving universe %d: %w", rec.ID, err)
	}
	return nil
}
