package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
	"github.com/dtnitsch/estate-harvester/pkg/pacing"
)

// NoURLReason is recorded on listings that carry no usable detail link.
const NoURLReason = "no detail URL"

// DetailStore is what enrichment needs from storage.
type DetailStore interface {
	UnprocessedListings(ctx context.Context, limit int, exclude []string) ([]models.Listing, error)
	CountListings(ctx context.Context) (int64, error)
	CountUnprocessed(ctx context.Context) (int64, error)
	MarkProcessed(ctx context.Context, id, processingError string) error
	InsertDetail(ctx context.Context, d *models.Detail) error
}

type DetailFetcher interface {
	FetchDetail(ctx context.Context, detailURL string) DetailResult
}

// Summary describes a finished enrichment run.
type Summary struct {
	InitialTotal     int64
	InitialRemaining int64
	Remaining        int64

	Batches   int
	Processed int
	Successes int
	Errors    int
	Deferred  int // left unprocessed for a later run
	Aborted   bool
	Elapsed   time.Duration
}

// SuccessRate is the percentage of processed listings that produced a stored detail.
func (s Summary) SuccessRate() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Processed) * 100
}

func (s Summary) AveragePerItem() time.Duration {
	if s.Processed == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(s.Processed)
}

func (s Summary) Result() models.RunResult {
	r := models.RunResult{
		Status:    models.RunStatusCompleted,
		Items:     s.Processed,
		Successes: s.Successes,
		Errors:    s.Errors,
		Message: fmt.Sprintf("%d batches, %.1f%% success, %d deferred, %d remaining",
			s.Batches, s.SuccessRate(), s.Deferred, s.Remaining),
	}
	if s.Aborted {
		r.Status = models.RunStatusAborted
	}
	return r
}

// Controller enriches unprocessed listings one bounded batch at a time until a batch comes back empty.
// A listing is marked processed on success and on permanent failure (no URL, failed fetch or parse).
// A failed detail write leaves it unprocessed for the next run; within this run it is not selected again.
type Controller struct {
	Store   DetailStore
	Scraper DetailFetcher

	BatchSize         int
	ItemDelay         pacing.DelaySource
	BatchPause        time.Duration
	CountErrorBackoff time.Duration
	BatchErrorBackoff time.Duration
	MaxBatchErrors    int

	Sleeper pacing.Sleeper
	Logger  *slog.Logger
}

func (c *Controller) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary, err := c.run(ctx)
	summary.Elapsed = time.Since(start)
	return summary, err
}

func (c *Controller) run(ctx context.Context) (Summary, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var summary Summary
	total, err := c.Store.CountListings(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to count listings: %w", err)
	}
	remaining, err := c.Store.CountUnprocessed(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to count unprocessed listings: %w", err)
	}
	summary.InitialTotal = total
	summary.InitialRemaining = remaining
	summary.Remaining = remaining

	logger.Info("enrichment starting",
		"total", total,
		"processed", total-remaining,
		"remaining", remaining,
		"progress", fmt.Sprintf("%.1f%%", percent(total-remaining, total)),
		"batch_size", c.BatchSize)

	if remaining == 0 {
		logger.Info("no unprocessed listings, nothing to enrich")
		return summary, nil
	}

	var deferred []string
	batchErrors := 0
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		batch, err := c.Store.UnprocessedListings(ctx, c.BatchSize, deferred)
		if err != nil {
			batchErrors++
			logger.Error("failed to read batch", "batch", summary.Batches+1, "attempt", batchErrors, "error", err)
			if c.MaxBatchErrors > 0 && batchErrors >= c.MaxBatchErrors {
				summary.Aborted = true
				logger.Error("too many consecutive batch errors, stopping", "errors", batchErrors)
				return summary, nil
			}
			if err := c.Sleeper.Sleep(ctx, c.BatchErrorBackoff); err != nil {
				return summary, err
			}
			continue
		}
		batchErrors = 0

		if len(batch) == 0 {
			logger.Info("no more unprocessed listings")
			break
		}
		summary.Batches++
		logger.Info("starting batch", "batch", summary.Batches, "size", len(batch))

		for i, listing := range batch {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			summary.Processed++
			logger.Debug("processing listing", "batch", summary.Batches,
				"item", fmt.Sprintf("%d/%d", i+1, len(batch)), "listing_id", listing.ID, "name", listing.Name)

			ok, retry := c.process(ctx, logger, listing)
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			switch {
			case ok:
				summary.Successes++
			case retry:
				summary.Errors++
				summary.Deferred++
				deferred = append(deferred, listing.ID)
			default:
				summary.Errors++
			}

			if i < len(batch)-1 {
				if err := c.Sleeper.Sleep(ctx, c.ItemDelay.Next()); err != nil {
					return summary, err
				}
			}
		}

		remaining, err := c.Store.CountUnprocessed(ctx)
		if err != nil {
			logger.Error("failed to count unprocessed listings, continuing", "batch", summary.Batches, "error", err)
			if err := c.Sleeper.Sleep(ctx, c.CountErrorBackoff); err != nil {
				return summary, err
			}
			continue
		}
		summary.Remaining = remaining
		logger.Info("batch completed", "batch", summary.Batches, "remaining", remaining)
		if remaining == 0 {
			break
		}
		if err := c.Sleeper.Sleep(ctx, c.BatchPause); err != nil {
			return summary, err
		}
	}

	logger.Info("enrichment finished",
		"batches", summary.Batches,
		"processed", summary.Processed,
		"successes", summary.Successes,
		"errors", summary.Errors,
		"deferred", summary.Deferred)
	return summary, nil
}

// process enriches one listing. retry reports a failure that must stay unprocessed.
func (c *Controller) process(ctx context.Context, logger *slog.Logger, listing models.Listing) (ok, retry bool) {
	logger = logger.With("listing_id", listing.ID)

	if !listing.HasDetailURL() {
		logger.Warn("listing has no detail URL, marking processed", "url", listing.URL)
		return false, c.markFailed(ctx, logger, listing.ID, NoURLReason)
	}

	started := time.Now()
	res := c.Scraper.FetchDetail(ctx, listing.URL)
	if res.Err != nil {
		if ctx.Err() != nil {
			return false, true
		}
		logger.Error("failed to scrape detail page", "url", listing.URL,
			"elapsed", time.Since(started).Round(time.Millisecond).String(), "error", res.Err)
		return false, c.markFailed(ctx, logger, listing.ID, res.Err.Error())
	}

	d := res.Detail
	d.ListingID = listing.ID
	if err := c.Store.InsertDetail(ctx, d); err != nil {
		logger.Error("failed to save detail, leaving listing for a later run", "error", err)
		return false, true
	}
	if err := c.Store.MarkProcessed(ctx, listing.ID, ""); err != nil {
		// the next run stores a second detail for this listing
		logger.Error("failed to mark listing processed after saving its detail",
			"orphaned_detail_id", d.ID, "error", err)
		return false, true
	}

	logger.Info("saved detail",
		"url", listing.URL,
		"fields", len(d.Fields),
		"images", len(d.Images),
		"elapsed", time.Since(started).Round(time.Millisecond).String())
	return true, false
}

// markFailed records a permanent failure. It reports whether the mark itself failed.
func (c *Controller) markFailed(ctx context.Context, logger *slog.Logger, id, reason string) bool {
	if err := c.Store.MarkProcessed(ctx, id, reason); err != nil {
		logger.Error("failed to mark listing processed", "reason", reason, "error", err)
		return true
	}
	return false
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
