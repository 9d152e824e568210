package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
	"github.com/dtnitsch/estate-harvester/pkg/db"
	"github.com/jszwec/csvutil"
)

func TestWriteListings(t *testing.T) {
	s, err := db.Open(":memory:", db.DefaultTables())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	sale := int64(71000000)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	listings := []models.Listing{
		{ID: "/nc_1/", Name: "パークハウス", Price: "価格：7100万円", SalePriceUnits: &sale, URL: "https://suumo.example/nc_1/", UpdatedAt: now},
		{ID: "/nc_2/", Name: "グランドメゾン, 港", UpdatedAt: now},
	}
	if _, err := s.InsertListings(ctx, listings); err != nil {
		t.Fatalf("InsertListings() error = %v", err)
	}
	if err := s.MarkProcessed(ctx, "/nc_2/", "no detail URL"); err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}

	var buf bytes.Buffer
	n, err := WriteListings(ctx, s, &buf)
	if err != nil {
		t.Fatalf("WriteListings() error = %v", err)
	}
	if n != 2 {
		t.Errorf("wrote %d rows, want 2", n)
	}

	var rows []Row
	if err := csvutil.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("csvutil.Unmarshal() error = %v\n%s", err, buf.String())
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows back, want 2", len(rows))
	}
	if rows[0].SalePriceUnits == nil || *rows[0].SalePriceUnits != sale || rows[0].RentPriceUnits != nil {
		t.Errorf("first row prices = %v/%v", rows[0].SalePriceUnits, rows[0].RentPriceUnits)
	}
	if rows[1].Name != "グランドメゾン, 港" || !rows[1].Processed || rows[1].ProcessingError != "no detail URL" {
		t.Errorf("second row = %+v", rows[1])
	}
}

type emptySource struct{}

func (emptySource) AllListings(context.Context, func(models.Listing) error) error { return nil }

func TestWriteListings_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteListings(context.Background(), emptySource{}, &buf)
	if err != nil || n != 0 {
		t.Fatalf("WriteListings() = %d, %v", n, err)
	}
	if !strings.HasPrefix(buf.String(), "id,category,name,") {
		t.Errorf("header = %q", buf.String())
	}
}

type failingSource struct{}

func (failingSource) AllListings(context.Context, func(models.Listing) error) error {
	return errors.New("cursor lost")
}

func TestWriteListings_SourceError(t *testing.T) {
	if _, err := WriteListings(context.Background(), failingSource{}, &bytes.Buffer{}); err == nil {
		t.Error("WriteListings() should fail when the source fails")
	}
}
