package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
	"github.com/dtnitsch/estate-harvester/pkg/parser"
)

var errNoDetail = errors.New("detail page yielded no record")

// Getter fetches a page body.
type Getter interface {
	GetHtmlBytes(ctx context.Context, url string) ([]byte, error)
}

// DetailResult is the outcome of one detail page. Exactly one of Detail and Err is set.
type DetailResult struct {
	Detail *models.Detail
	Err    error
}

// DetailScraper fetches a listing's own page and extracts its Detail.
type DetailScraper struct {
	Fetcher Getter
	Now     func() time.Time
}

func (s *DetailScraper) FetchDetail(ctx context.Context, detailURL string) DetailResult {
	body, err := s.Fetcher.GetHtmlBytes(ctx, detailURL)
	if err != nil {
		return DetailResult{Err: err}
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	d, err := parser.ParseDetail(body, detailURL, now().UTC())
	if err != nil {
		return DetailResult{Err: err}
	}
	if d == nil {
		return DetailResult{Err: errNoDetail}
	}
	return DetailResult{Detail: d}
}
