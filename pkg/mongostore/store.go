// Package mongostore keeps listings, details, crawl state and runs in MongoDB collections.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const duplicateKeyCode = 11000

type Collections struct {
	Listings string
	Details  string
	State    string
	Runs     string
}

type Store struct {
	client   *mongo.Client
	listings *mongo.Collection
	details  *mongo.Collection
	state    *mongo.Collection
	runs     *mongo.Collection
}

// Open connects to uri and verifies the server answers.
func Open(ctx context.Context, uri, database string, c Collections) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	return &Store{
		client:   client,
		listings: db.Collection(c.Listings),
		details:  db.Collection(c.Details),
		state:    db.Collection(c.State),
		runs:     db.Collection(c.Runs),
	}, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// InsertListings inserts unordered so one duplicate _id does not stop the rest.
// Duplicate-key write errors are expected and not reported.
func (s *Store) InsertListings(ctx context.Context, listings []models.Listing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	docs := make([]any, len(listings))
	for i, l := range listings {
		docs[i] = l
	}

	_, err := s.listings.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(listings), nil
	}
	if dups, ok := duplicatesOnly(err); ok {
		return len(listings) - dups, nil
	}
	return 0, fmt.Errorf("failed to insert listings: %w", err)
}

// duplicatesOnly reports how many write errors err carries when every one of them is a duplicate key.
func duplicatesOnly(err error) (int, bool) {
	var bulk mongo.BulkWriteException
	if !errors.As(err, &bulk) || bulk.WriteConcernError != nil || len(bulk.WriteErrors) == 0 {
		return 0, false
	}
	for _, we := range bulk.WriteErrors {
		if we.Code != duplicateKeyCode {
			return 0, false
		}
	}
	return len(bulk.WriteErrors), true
}

func unprocessedFilter(exclude []string) bson.M {
	filter := bson.M{"processed": bson.M{"$ne": true}}
	if len(exclude) > 0 {
		filter["_id"] = bson.M{"$nin": exclude}
	}
	return filter
}

func (s *Store) UnprocessedListings(ctx context.Context, limit int, exclude []string) ([]models.Listing, error) {
	cursor, err := s.listings.Find(ctx, unprocessedFilter(exclude), options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to query unprocessed listings: %w", err)
	}

	listings := []models.Listing{}
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

func (s *Store) AllListings(ctx context.Context, fn func(models.Listing) error) error {
	cursor, err := s.listings.Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to query listings: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var l models.Listing
		if err := cursor.Decode(&l); err != nil {
			return fmt.Errorf("failed to decode listing: %w", err)
		}
		if err := fn(l); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (s *Store) CountListings(ctx context.Context) (int64, error) {
	n, err := s.listings.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return n, nil
}

func (s *Store) CountUnprocessed(ctx context.Context) (int64, error) {
	n, err := s.listings.CountDocuments(ctx, unprocessedFilter(nil))
	if err != nil {
		return 0, fmt.Errorf("failed to count unprocessed listings: %w", err)
	}
	return n, nil
}

func (s *Store) MarkProcessed(ctx context.Context, id, processingError string) error {
	set := bson.M{"processed": true, "processedAt": time.Now().UTC()}
	if processingError != "" {
		set["processingError"] = processingError
	}

	result, err := s.listings.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to mark listing processed: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to mark listing processed: listing %s not found", id)
	}
	return nil
}

func (s *Store) InsertDetail(ctx context.Context, d *models.Detail) error {
	if _, err := s.details.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("failed to insert detail for listing %s: %w", d.ListingID, err)
	}
	return nil
}

func (s *Store) CountDetails(ctx context.Context) (int64, error) {
	n, err := s.details.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count details: %w", err)
	}
	return n, nil
}

func (s *Store) LastCompletedPage(ctx context.Context, name string) (*models.CrawlState, error) {
	var state models.CrawlState
	err := s.state.FindOne(ctx, bson.M{"_id": name}).Decode(&state)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read crawl state: %w", err)
	}
	return &state, nil
}

func (s *Store) SaveLastCompletedPage(ctx context.Context, name string, page int) error {
	_, err := s.state.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$set": bson.M{"lastCompletedPage": page, "updatedAt": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl state: %w", err)
	}
	return nil
}

func (s *Store) StartRun(ctx context.Context, run *models.RunRecord) error {
	if _, err := s.runs.InsertOne(ctx, run); err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

func (s *Store) FinishRun(ctx context.Context, run *models.RunRecord) error {
	if _, err := s.runs.ReplaceOne(ctx, bson.M{"_id": run.ID}, run); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

func (s *Store) RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.runs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []models.RunRecord
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode runs: %w", err)
	}
	return runs, nil
}
