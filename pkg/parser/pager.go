package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PagerInfo is what the first result page says about the whole result set.
type PagerInfo struct {
	TotalItems int
	MaxPage    int
}

var digits = regexp.MustCompile(`\d+`)

// ParsePager reads the highest page number from the pager links and the hit count.
// A page without a pager is a single page.
func ParsePager(html []byte) (PagerInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return PagerInfo{}, fmt.Errorf("failed to parse pager: %w", err)
	}

	info := PagerInfo{MaxPage: 1}
	doc.Find(".pagination-parts li").Each(func(_ int, li *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(li.Text()))
		if err == nil && n > info.MaxPage {
			info.MaxPage = n
		}
	})

	hit := strings.ReplaceAll(doc.Find(".pagination_set-hit").First().Text(), ",", "")
	if m := digits.FindString(hit); m != "" {
		info.TotalItems, _ = strconv.Atoi(m)
	}

	return info, nil
}
