package crawl

import (
	"context"
	"fmt"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
	"github.com/dtnitsch/estate-harvester/pkg/parser"
)

// Getter fetches a page body. Evict forgets a cached body that turned out to be unusable.
type Getter interface {
	GetHtmlBytes(ctx context.Context, url string) ([]byte, error)
	Evict(url string)
}

// PageResult is the outcome of one listing page. Err is set when the page could not be
// fetched or parsed, in which case Listings is empty.
type PageResult struct {
	Listings []models.Listing
	Err      error
}

// PageURL appends the page number to the pager path.
func PageURL(startPath string, page int) string {
	return fmt.Sprintf("%s&pn=%d", startPath, page)
}

// PageCrawler turns one result page into listings.
type PageCrawler struct {
	Fetcher  Getter
	BasePath string
	Now      func() time.Time
}

// FetchPage never fails outright; failures are carried in the result for the caller to log.
func (p *PageCrawler) FetchPage(ctx context.Context, pageURL string) PageResult {
	body, err := p.Fetcher.GetHtmlBytes(ctx, pageURL)
	if err != nil {
		return PageResult{Err: err}
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	listings, err := parser.ParseListings(body, p.BasePath, now().UTC())
	if err != nil || len(listings) == 0 {
		p.Fetcher.Evict(pageURL)
	}
	if err != nil {
		return PageResult{Err: err}
	}
	return PageResult{Listings: listings}
}

// PagerCounter reads the result size from the first pager page.
type PagerCounter struct {
	Fetcher   Getter
	StartPath string
}

func (c *PagerCounter) CountPages(ctx context.Context) (parser.PagerInfo, error) {
	body, err := c.Fetcher.GetHtmlBytes(ctx, PageURL(c.StartPath, 1))
	if err != nil {
		return parser.PagerInfo{}, fmt.Errorf("failed to fetch first page: %w", err)
	}
	return parser.ParsePager(body)
}
