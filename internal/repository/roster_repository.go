package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/oncall-roster-api/internal/models"
)

// RosterRepository persists accepted monthly rosters.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository builds the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ReplaceMonth atomically swaps the stored roster for a month: any previous
// rows for the same year/month are removed before the new assignment rows go
// in, so a re-save after re-planning never leaves stale shifts behind.
func (r *RosterRepository) ReplaceMonth(ctx context.Context, year, month int, rows []models.ShiftAssignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roster tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shift_assignments WHERE year = $1 AND month = $2`, year, month); err != nil {
		return fmt.Errorf("clear roster %d-%02d: %w", year, month, err)
	}

	const query = `
INSERT INTO shift_assignments (year, month, day, shift_type, doctor_index, created_at)
VALUES (:year, :month, :day, :shift_type, :doctor_index, :created_at)`

	now := time.Now().UTC()
	for i := range rows {
		row := &rows[i]
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("insert shift assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit roster tx: %w", err)
	}
	return nil
}

// ListMonth returns the stored assignment rows for a month ordered by day,
// night shift before day shift.
func (r *RosterRepository) ListMonth(ctx context.Context, year, month int) ([]models.ShiftAssignment, error) {
	const query = `SELECT id, year, month, day, shift_type, doctor_index, created_at
FROM shift_assignments WHERE year = $1 AND month = $2
ORDER BY day ASC, shift_type DESC`

	var rows []models.ShiftAssignment
	if err := r.db.SelectContext(ctx, &rows, query, year, month); err != nil {
		return nil, fmt.Errorf("list roster %d-%02d: %w", year, month, err)
	}
	return rows, nil
}
