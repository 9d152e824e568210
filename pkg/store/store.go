// Package store selects the storage backend named in the configuration.
package store

import (
	"context"
	"fmt"

	"github.com/dtnitsch/estate-harvester/models"
	"github.com/dtnitsch/estate-harvester/pkg/db"
	"github.com/dtnitsch/estate-harvester/pkg/mongostore"
)

// Store is everything the commands need from a backend.
type Store interface {
	InsertListings(ctx context.Context, listings []models.Listing) (int, error)
	AllListings(ctx context.Context, fn func(models.Listing) error) error
	UnprocessedListings(ctx context.Context, limit int, exclude []string) ([]models.Listing, error)
	CountListings(ctx context.Context) (int64, error)
	CountUnprocessed(ctx context.Context) (int64, error)
	MarkProcessed(ctx context.Context, id, processingError string) error

	InsertDetail(ctx context.Context, d *models.Detail) error
	CountDetails(ctx context.Context) (int64, error)

	LastCompletedPage(ctx context.Context, name string) (*models.CrawlState, error)
	SaveLastCompletedPage(ctx context.Context, name string, page int) error

	StartRun(ctx context.Context, run *models.RunRecord) error
	FinishRun(ctx context.Context, run *models.RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error)

	Close() error
}

var (
	_ Store = (*db.DB)(nil)
	_ Store = (*mongostore.Store)(nil)
)

// Open connects to the configured backend.
func Open(ctx context.Context, cfg models.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		s, err := db.Open(cfg.SQLitePath, db.Tables{
			Listings: cfg.Listings,
			Details:  cfg.Details,
			State:    cfg.State,
			Runs:     cfg.Runs,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongo":
		s, err := mongostore.Open(ctx, cfg.MongoURI, cfg.Database, mongostore.Collections{
			Listings: cfg.Listings,
			Details:  cfg.Details,
			State:    cfg.State,
			Runs:     cfg.Runs,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
