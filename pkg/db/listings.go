package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
)

const listingColumns = `id, category, name, address, station, description, image, url, price, size, age,
	sale_price_units, rent_price_units, area_m2, updated_at, processed, processing_error, processed_at`

// InsertListings stores listings whose id is not present yet and returns how many were new.
// Existing ids are left untouched.
func (db *DB) InsertListings(ctx context.Context, listings []models.Listing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, category, name, address, station, description, image, url, price, size, age,
			sale_price_units, rent_price_units, area_m2, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, db.tables.Listings))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare listing insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, l := range listings {
		result, err := stmt.ExecContext(ctx,
			l.ID, l.Category, l.Name, l.Address, l.Station, l.Description, l.Image, l.URL,
			l.Price, l.Size, l.Age,
			nullInt(l.SalePriceUnits), nullInt(l.RentPriceUnits), nullFloat(l.AreaM2), l.UpdatedAt.UTC())
		if err != nil {
			return 0, fmt.Errorf("failed to insert listing %s: %w", l.ID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit listings: %w", err)
	}
	return inserted, nil
}

// UnprocessedListings returns up to limit listings with processed unset, in insertion order,
// skipping any id in exclude.
func (db *DB) UnprocessedListings(ctx context.Context, limit int, exclude []string) ([]models.Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE processed = 0", listingColumns, db.tables.Listings)
	args := make([]any, 0, len(exclude)+1)
	if len(exclude) > 0 {
		query += " AND id NOT IN (" + strings.TrimSuffix(strings.Repeat("?,", len(exclude)), ",") + ")"
		for _, id := range exclude {
			args = append(args, id)
		}
	}
	query += " ORDER BY rowid LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unprocessed listings: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// AllListings calls fn for every listing in insertion order, stopping at the first error.
func (db *DB) AllListings(ctx context.Context, fn func(models.Listing) error) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", listingColumns, db.tables.Listings))
	if err != nil {
		return fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
	}
	return rows.Err()
}

// GetListing returns the listing with id, or nil when absent.
func (db *DB) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", listingColumns, db.tables.Listings), id)
	if err != nil {
		return nil, fmt.Errorf("failed to query listing: %w", err)
	}
	defer rows.Close()

	listings, err := scanListings(rows)
	if err != nil || len(listings) == 0 {
		return nil, err
	}
	return &listings[0], nil
}

func (db *DB) CountListings(ctx context.Context) (int64, error) {
	return db.count(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", db.tables.Listings))
}

func (db *DB) CountUnprocessed(ctx context.Context) (int64, error) {
	return db.count(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE processed = 0", db.tables.Listings))
}

// MarkProcessed flags a listing as enriched. A non-empty processingError records a permanent failure.
func (db *DB) MarkProcessed(ctx context.Context, id, processingError string) error {
	result, err := db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET processed = 1, processing_error = ?, processed_at = ?
		WHERE id = ?
	`, db.tables.Listings), nullString(processingError), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark listing processed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to mark listing processed: listing %s not found", id)
	}
	return nil
}

func (db *DB) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func scanListings(rows *sql.Rows) ([]models.Listing, error) {
	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}
	return listings, nil
}

func scanListing(rows *sql.Rows) (models.Listing, error) {
	var (
		l               models.Listing
		sale, rent      sql.NullInt64
		area            sql.NullFloat64
		processingError sql.NullString
		processedAt     sql.NullTime
	)
	if err := rows.Scan(&l.ID, &l.Category, &l.Name, &l.Address, &l.Station, &l.Description, &l.Image, &l.URL,
		&l.Price, &l.Size, &l.Age, &sale, &rent, &area, &l.UpdatedAt,
		&l.Processed, &processingError, &processedAt); err != nil {
		return l, fmt.Errorf("failed to scan listing: %w", err)
	}
	l.SalePriceUnits = intPtr(sale)
	l.RentPriceUnits = intPtr(rent)
	l.AreaM2 = floatPtr(area)
	l.ProcessingError = processingError.String
	if processedAt.Valid {
		t := processedAt.Time
		l.ProcessedAt = &t
	}
	return l, nil
}
