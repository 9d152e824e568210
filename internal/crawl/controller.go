package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
	"github.com/dtnitsch/estate-harvester/pkg/fetcher"
	"github.com/dtnitsch/estate-harvester/pkg/pacing"
	"github.com/dtnitsch/estate-harvester/pkg/parser"
)

// ListingStore is what the listing crawl needs from storage.
type ListingStore interface {
	InsertListings(ctx context.Context, listings []models.Listing) (int, error)
	LastCompletedPage(ctx context.Context, name string) (*models.CrawlState, error)
	SaveLastCompletedPage(ctx context.Context, name string, page int) error
}

type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) PageResult
}

type PageCounter interface {
	CountPages(ctx context.Context) (parser.PagerInfo, error)
}

// Summary describes a finished crawl.
type Summary struct {
	StartPage      int
	MaxPage        int
	TotalItems     int
	PagesVisited   int
	PagesSucceeded int
	PagesFailed    int
	Found          int // listings parsed
	Inserted       int // listings new to the store
	Aborted        bool
	AbortPage      int
	AbortReason    string
	Elapsed        time.Duration
}

// Result maps the summary onto run bookkeeping.
func (s Summary) Result() models.RunResult {
	r := models.RunResult{
		Status:    models.RunStatusCompleted,
		Items:     s.PagesVisited,
		Successes: s.PagesSucceeded,
		Errors:    s.PagesFailed,
		Message:   fmt.Sprintf("pages %d-%d, %d listings found, %d new", s.StartPage, s.MaxPage, s.Found, s.Inserted),
	}
	if s.Aborted {
		r.Status = models.RunStatusAborted
		r.Message = fmt.Sprintf("aborted on page %d: %s", s.AbortPage, s.AbortReason)
	}
	return r
}

// Controller walks the pager from the page after the last completed one up to the last page.
// A page counts as completed once a non-empty set of listings is written; only then does the saved state advance.
// Connection refusal ends the run at once.
type Controller struct {
	Pages     PageFetcher
	Counter   PageCounter
	Store     ListingStore
	Delay     pacing.DelaySource
	Sleeper   pacing.Sleeper
	Logger    *slog.Logger
	StartPath string
	Name      string
}

// Run returns an error when the crawl could not start (state or page count unavailable) or ctx ended.
// Page failures and aborts are reported through the Summary.
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
	state, err := c.Store.LastCompletedPage(ctx, c.name())
	if err != nil {
		return summary, fmt.Errorf("failed to read crawl state: %w", err)
	}
	info, err := c.Counter.CountPages(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to count pages: %w", err)
	}

	summary.StartPage = state.ResumePage()
	summary.MaxPage = info.MaxPage
	summary.TotalItems = info.TotalItems
	logger.Info("crawl starting",
		"start_page", summary.StartPage, "max_page", summary.MaxPage, "total_items", summary.TotalItems)

	if summary.StartPage > summary.MaxPage {
		logger.Info("nothing to crawl, every page already completed")
		return summary, nil
	}

	for page := summary.StartPage; page <= summary.MaxPage; page++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		pageURL := PageURL(c.StartPath, page)
		logger.Info("scraping page", "page", page, "max_page", summary.MaxPage)
		summary.PagesVisited++

		res := c.Pages.FetchPage(ctx, pageURL)
		if res.Err != nil {
			if fetcher.IsConnectionRefused(res.Err) {
				c.abort(&summary, logger, page, res.Err)
				return summary, nil
			}
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.PagesFailed++
			logger.Error("failed to fetch page", "page", page, "url", pageURL, "error", res.Err)
		} else if c.savePage(ctx, &summary, logger, page, res.Listings) {
			summary.PagesSucceeded++
		} else {
			summary.PagesFailed++
			if summary.Aborted {
				return summary, nil
			}
		}

		if page < summary.MaxPage {
			if err := c.Sleeper.Sleep(ctx, c.Delay.Next()); err != nil {
				return summary, err
			}
		}
	}

	logger.Info("crawl finished",
		"pages_visited", summary.PagesVisited, "pages_failed", summary.PagesFailed,
		"found", summary.Found, "inserted", summary.Inserted)
	return summary, nil
}

// savePage writes the listings and advances the crawl state. It reports whether the page completed.
// A page without listings is treated as failed: an access-restricted page or a layout change
// must not move the resume point past pages that were never read.
func (c *Controller) savePage(ctx context.Context, summary *Summary, logger *slog.Logger, page int, listings []models.Listing) bool {
	if len(listings) == 0 {
		logger.Warn("no listings on page, leaving crawl state unchanged", "page", page)
		return false
	}

	inserted, err := c.Store.InsertListings(ctx, listings)
	if err != nil {
		if fetcher.IsConnectionRefused(err) {
			c.abort(summary, logger, page, err)
			return false
		}
		logger.Error("failed to save listings", "page", page, "error", err)
		return false
	}
	summary.Found += len(listings)
	summary.Inserted += inserted
	logger.Info("saved listings", "page", page, "found", len(listings), "inserted", inserted)

	if err := c.Store.SaveLastCompletedPage(ctx, c.name(), page); err != nil {
		logger.Error("failed to save crawl state", "page", page, "error", err)
		return false
	}
	return true
}

func (c *Controller) abort(summary *Summary, logger *slog.Logger, page int, err error) {
	summary.Aborted = true
	summary.AbortPage = page
	summary.AbortReason = err.Error()
	logger.Error("connection refused, stopping crawl", "page", page, "error", err)
}

func (c *Controller) name() string {
	if c.Name == "" {
		return models.DefaultCrawlName
	}
	return c.Name
}
