package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dtnitsch/estate-harvester/models"
)

// StartRun inserts a run row in its initial state.
func (db *DB) StartRun(ctx context.Context, run *models.RunRecord) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, mode, started_at, status, items, successes, errors, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, db.tables.Runs), run.ID, string(run.Mode), run.StartedAt.UTC(), string(run.Status),
		run.Items, run.Successes, run.Errors, run.Message)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// FinishRun writes the final status and counters of a run.
func (db *DB) FinishRun(ctx context.Context, run *models.RunRecord) error {
	var finished sql.NullTime
	if run.FinishedAt != nil {
		finished = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET finished_at = ?, status = ?, items = ?, successes = ?, errors = ?, message = ?
		WHERE id = ?
	`, db.tables.Runs), finished, string(run.Status), run.Items, run.Successes, run.Errors, run.Message, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, mode, started_at, finished_at, status, items, successes, errors, message
		FROM %s
		ORDER BY started_at DESC
		LIMIT ?
	`, db.tables.Runs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		var (
			r            models.RunRecord
			mode, status string
			finished     sql.NullTime
		)
		if err := rows.Scan(&r.ID, &mode, &r.StartedAt, &finished, &status,
			&r.Items, &r.Successes, &r.Errors, &r.Message); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Mode = models.RunMode(mode)
		r.Status = models.RunStatus(status)
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}
