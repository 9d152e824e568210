package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
)

// LastCompletedPage returns the saved state for the named crawl, or nil if it never completed a page.
func (db *DB) LastCompletedPage(ctx context.Context, name string) (*models.CrawlState, error) {
	state := &models.CrawlState{Name: name}
	err := db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT last_completed_page, updated_at FROM %s WHERE name = ?", db.tables.State), name,
	).Scan(&state.LastCompletedPage, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read crawl state: %w", err)
	}
	return state, nil
}

// SaveLastCompletedPage records page as the named crawl's last completed page.
func (db *DB) SaveLastCompletedPage(ctx context.Context, name string, page int) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, last_completed_page, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			last_completed_page = excluded.last_completed_page,
			updated_at = excluded.updated_at
	`, db.tables.State), name, page, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save crawl state: %w", err)
	}
	return nil
}
