// Package export writes stored listings out as CSV.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
	"github.com/jszwec/csvutil"
)

// Source streams every stored listing.
type Source interface {
	AllListings(ctx context.Context, fn func(models.Listing) error) error
}

// Row is one CSV line. Column names follow the csv tags.
type Row struct {
	ID              string     `csv:"id"`
	Category        string     `csv:"category"`
	Name            string     `csv:"name"`
	Address         string     `csv:"address"`
	Station         string     `csv:"station"`
	Price           string     `csv:"price"`
	Size            string     `csv:"size"`
	Age             string     `csv:"age"`
	SalePriceUnits  *int64     `csv:"sale_price_units"`
	RentPriceUnits  *int64     `csv:"rent_price_units"`
	AreaM2          *float64   `csv:"area_m2"`
	URL             string     `csv:"url"`
	Image           string     `csv:"image"`
	UpdatedAt       time.Time  `csv:"updated_at"`
	Processed       bool       `csv:"processed"`
	ProcessingError string     `csv:"processing_error"`
	ProcessedAt     *time.Time `csv:"processed_at"`
}

func rowFor(l models.Listing) Row {
	return Row{
		ID:              l.ID,
		Category:        l.Category,
		Name:            l.Name,
		Address:         l.Address,
		Station:         l.Station,
		Price:           l.Price,
		Size:            l.Size,
		Age:             l.Age,
		SalePriceUnits:  l.SalePriceUnits,
		RentPriceUnits:  l.RentPriceUnits,
		AreaM2:          l.AreaM2,
		URL:             l.URL,
		Image:           l.Image,
		UpdatedAt:       l.UpdatedAt,
		Processed:       l.Processed,
		ProcessingError: l.ProcessingError,
		ProcessedAt:     l.ProcessedAt,
	}
}

// WriteListings writes a header and one row per listing, returning the row count.
// The header is written even when there are no listings.
func WriteListings(ctx context.Context, src Source, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	count := 0
	err := src.AllListings(ctx, func(l models.Listing) error {
		if err := enc.Encode(rowFor(l)); err != nil {
			return fmt.Errorf("failed to encode listing %s: %w", l.ID, err)
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	if count == 0 {
		if err := enc.EncodeHeader(Row{}); err != nil {
			return 0, fmt.Errorf("failed to write header: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("failed to flush csv: %w", err)
	}
	return count, nil
}
