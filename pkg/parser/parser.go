// Package parser turns fetched listing, pager and detail pages into records.
package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/estate-harvester/models"
	"github.com/dtnitsch/estate-harvester/pkg/extractor"
	"github.com/dtnitsch/estate-harvester/pkg/records"
	"github.com/go-shiori/go-readability"
)

// Detail page landmarks.
const (
	detailTableRows    = ".property_view_table tr"
	descriptionHeading = "物件の特徴"
	featuresHeading    = "特徴ピックアップ"
)

var (
	featureSeparator = regexp.MustCompile(`\s*/\s*`)
	longitudePattern = regexp.MustCompile(`longitude["']?\s*:\s*(\d+\.\d+)`)
	latitudePattern  = regexp.MustCompile(`latitude["']?\s*:\s*(\d+\.\d+)`)
)

// ParseListings builds one Listing per card on a result page, in document order.
func ParseListings(html []byte, basePath string, now time.Time) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	listings := []models.Listing{}
	doc.Find(records.CardSelector).Each(func(i int, card *goquery.Selection) {
		fields, missing := extractor.Extract(card, records.ListingRules)
		if len(missing) > 0 {
			slog.Debug("listing card is missing fields", "card", i, "missing", missing)
		}
		cells := extractor.Cells(card, records.ListingTableRows...)
		listings = append(listings, records.BuildListing(fields, cells, basePath, now))
	})

	return listings, nil
}

// ParseDetail extracts a Detail from a listing's own page. Sections that are absent
// leave their fields empty. ListingID is left for the caller.
func ParseDetail(html []byte, pageURL string, now time.Time) (*models.Detail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail page: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	page := records.DetailPage{}
	page.Fields = extractor.LabeledRows(doc.Selection, detailTableRows, "th", "td")

	if text, ok := extractor.SiblingAfterHeading(doc.Selection, "h2", descriptionHeading); ok {
		page.Description = text
	}
	if text, ok := extractor.SiblingAfterHeading(doc.Selection, "h3", featuresHeading); ok && text != "" {
		page.Features = featureSeparator.Split(text, -1)
	}

	imageRoot := doc.Find("#main")
	if imageRoot.Length() == 0 {
		imageRoot = doc.Find("body")
	}
	page.Images = extractor.Images(imageRoot, base, extractor.DefaultImageFilter)
	page.Coordinates = mapCoordinates(doc)
	page.Title = pageTitle(doc, html, base)

	return records.BuildDetail(page, pageURL, now), nil
}

// pageTitle prefers the readable article title and falls back to <title>.
func pageTitle(doc *goquery.Document, html []byte, base *url.URL) string {
	if base != nil {
		rp := readability.NewParser()
		article, err := rp.Parse(bytes.NewReader(html), base)
		if err == nil && strings.TrimSpace(article.Title) != "" {
			return extractor.NormalizeText(article.Title)
		}
	}
	return extractor.NormalizeText(doc.Find("title").First().Text())
}

func mapCoordinates(doc *goquery.Document) *models.Coordinates {
	var coords *models.Coordinates
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "google.maps.LatLng") && !strings.Contains(text, "longitude") {
			return true
		}
		lng := longitudePattern.FindStringSubmatch(text)
		lat := latitudePattern.FindStringSubmatch(text)
		if len(lng) < 2 || len(lat) < 2 {
			return false
		}
		latV, errLat := strconv.ParseFloat(lat[1], 64)
		lngV, errLng := strconv.ParseFloat(lng[1], 64)
		if errLat == nil && errLng == nil {
			coords = &models.Coordinates{Lat: latV, Lng: lngV}
		}
		return false
	})
	return coords
}
