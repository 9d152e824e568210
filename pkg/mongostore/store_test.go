package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestDuplicatesOnly(t *testing.T) {
	dup := mongo.WriteError{Code: duplicateKeyCode, Message: "E11000 duplicate key error"}
	other := mongo.WriteError{Code: 121, Message: "document failed validation"}

	tests := []struct {
		name     string
		err      error
		wantDups int
		wantOK   bool
	}{
		{name: "all duplicates", err: mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{{WriteError: dup}, {WriteError: dup}}}, wantDups: 2, wantOK: true},
		{name: "wrapped", err: fmt.Errorf("insert: %w", mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{{WriteError: dup}}}), wantDups: 1, wantOK: true},
		{name: "mixed", err: mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{{WriteError: dup}, {WriteError: other}}}},
		{name: "write concern", err: mongo.BulkWriteException{WriteConcernError: &mongo.WriteConcernError{Code: 64}, WriteErrors: []mongo.BulkWriteError{{WriteError: dup}}}},
		{name: "no write errors", err: mongo.BulkWriteException{}},
		{name: "unrelated", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dups, ok := duplicatesOnly(tt.err)
			if dups != tt.wantDups || ok != tt.wantOK {
				t.Errorf("duplicatesOnly() = (%d, %v), want (%d, %v)", dups, ok, tt.wantDups, tt.wantOK)
			}
		})
	}
}

func TestUnprocessedFilter(t *testing.T) {
	got := unprocessedFilter(nil)
	want := bson.M{"processed": bson.M{"$ne": true}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unprocessedFilter(nil) = %v", got)
	}

	got = unprocessedFilter([]string{"/a/"})
	want["_id"] = bson.M{"$nin": []string{"/a/"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unprocessedFilter(exclude) = %v", got)
	}
}

// setupTestStore connects to MONGO_TEST_URI and uses a throwaway database.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "estate_harvester_test_" + uuid.NewString()[:8]
	s, err := Open(ctx, uri, dbName, Collections{Listings: "listings", Details: "details", State: "scraper_state", Runs: "crawl_runs"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = s.client.Database(dbName).Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestStore_ListingLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	listings := []models.Listing{{ID: "/nc_1/", URL: "https://suumo.example/nc_1/"}, {ID: "/nc_2/"}}
	n, err := s.InsertListings(ctx, listings)
	if err != nil || n != 2 {
		t.Fatalf("InsertListings() = %d, %v", n, err)
	}
	n, err = s.InsertListings(ctx, append(listings, models.Listing{ID: "/nc_3/"}))
	if err != nil || n != 1 {
		t.Fatalf("InsertListings() with duplicates = %d, %v, want 1, nil", n, err)
	}

	if err := s.MarkProcessed(ctx, "/nc_2/", "no detail url"); err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}

	batch, err := s.UnprocessedListings(ctx, 10, []string{"/nc_3/"})
	if err != nil {
		t.Fatalf("UnprocessedListings() error = %v", err)
	}
	if len(batch) != 1 || batch[0].ID != "/nc_1/" {
		t.Errorf("UnprocessedListings() = %+v", batch)
	}

	remaining, err := s.CountUnprocessed(ctx)
	if err != nil || remaining != 2 {
		t.Errorf("CountUnprocessed() = %d, %v, want 2", remaining, err)
	}
}

func TestStore_CrawlState(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	state, err := s.LastCompletedPage(ctx, models.DefaultCrawlName)
	if err != nil || state != nil {
		t.Fatalf("LastCompletedPage() = %+v, %v, want nil", state, err)
	}
	if err := s.SaveLastCompletedPage(ctx, models.DefaultCrawlName, 4); err != nil {
		t.Fatalf("SaveLastCompletedPage() error = %v", err)
	}
	state, err = s.LastCompletedPage(ctx, models.DefaultCrawlName)
	if err != nil || state.ResumePage() != 5 {
		t.Errorf("ResumePage() = %d, %v, want 5", state.ResumePage(), err)
	}
}
