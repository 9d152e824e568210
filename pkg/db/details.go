package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dtnitsch/estate-harvester/models"
)

// InsertDetail stores one enrichment record. listing_id is not unique; selection guards against repeats.
func (db *DB) InsertDetail(ctx context.Context, d *models.Detail) error {
	features, err := json.Marshal(orEmpty(d.Features))
	if err != nil {
		return fmt.Errorf("failed to marshal features: %w", err)
	}
	images, err := json.Marshal(orEmpty(d.Images))
	if err != nil {
		return fmt.Errorf("failed to marshal images: %w", err)
	}
	fields := d.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	var lat, lng sql.NullFloat64
	if d.Coordinates != nil {
		lat = sql.NullFloat64{Float64: d.Coordinates.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: d.Coordinates.Lng, Valid: true}
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, listing_id, source_url, title, description, features, images, fields,
			lat, lng, sale_price_units, rent_price_units, area_m2, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, db.tables.Details),
		d.ID, d.ListingID, d.SourceURL, d.Title, d.Description, string(features), string(images), string(fieldsJSON),
		lat, lng, nullInt(d.SalePriceUnits), nullInt(d.RentPriceUnits), nullFloat(d.AreaM2), d.ScrapedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert detail for listing %s: %w", d.ListingID, err)
	}
	return nil
}

// DetailsForListing returns every detail row that references listingID.
func (db *DB) DetailsForListing(ctx context.Context, listingID string) ([]models.Detail, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, listing_id, source_url, title, description, features, images, fields,
			lat, lng, sale_price_units, rent_price_units, area_m2, scraped_at
		FROM %s WHERE listing_id = ? ORDER BY rowid
	`, db.tables.Details), listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query details: %w", err)
	}
	defer rows.Close()

	var details []models.Detail
	for rows.Next() {
		var (
			d                        models.Detail
			features, images, fields string
			lat, lng, area           sql.NullFloat64
			sale, rent               sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &d.ListingID, &d.SourceURL, &d.Title, &d.Description, &features, &images, &fields,
			&lat, &lng, &sale, &rent, &area, &d.ScrapedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detail: %w", err)
		}
		if err := json.Unmarshal([]byte(features), &d.Features); err != nil {
			return nil, fmt.Errorf("failed to unmarshal features: %w", err)
		}
		if err := json.Unmarshal([]byte(images), &d.Images); err != nil {
			return nil, fmt.Errorf("failed to unmarshal images: %w", err)
		}
		if err := json.Unmarshal([]byte(fields), &d.Fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
		}
		if lat.Valid && lng.Valid {
			d.Coordinates = &models.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
		}
		d.SalePriceUnits = intPtr(sale)
		d.RentPriceUnits = intPtr(rent)
		d.AreaM2 = floatPtr(area)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate details: %w", err)
	}
	return details, nil
}

func (db *DB) CountDetails(ctx context.Context) (int64, error) {
	return db.count(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", db.tables.Details))
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
