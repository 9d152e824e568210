// Package records turns extracted field maps into typed Listing and Detail records.
package records

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
	"github.com/dtnitsch/estate-harvester/pkg/extractor"
	"github.com/dtnitsch/estate-harvester/pkg/units"
	"github.com/google/uuid"
)

// CardSelector matches one listing card on a result page.
const CardSelector = ".cassette.js-bukkenCassette"

// Listing fields read by rule. The remaining fields come from the card's info tables.
const (
	FieldCategory    = "category"
	FieldName        = "name"
	FieldHref        = "href"
	FieldDescription = "description"
	FieldImage       = "image"
)

// ListingRules is the rule table applied to every card.
var ListingRules = []extractor.Rule{
	{Field: FieldCategory, Selector: ".cassettebox-header .cassettebox-hpct"},
	{Field: FieldName, Selector: ".cassettebox-header .cassettebox-title a", Required: true},
	{Field: FieldHref, Selector: ".cassettebox-header .cassettebox-title a", Attr: "href", Required: true},
	{Field: FieldDescription, Selector: ".infodatabox-lead"},
	{Field: FieldImage, Selector: ".cassettebox-body .ui-media .infodatabox-object img", Attr: "rel"},
}

// ListingTableRows selects the rows of a card's two info tables, in reading order.
var ListingTableRows = []string{
	".infodatabox-boxgroup .listtable:nth-of-type(1) tbody tr",
	".infodatabox-boxgroup .listtable:nth-of-type(2) tbody tr",
}

// Positions of the fixed fields inside the flattened info-table cells.
const (
	cellAddress = iota
	cellLine
	cellWalk
	cellPrice
	cellSize
	cellAge
)

// NoLinkPrefix marks identity keys of cards that carry no detail link.
const NoLinkPrefix = "nolink:"

// BuildListing composes one Listing from a card's rule fields and info-table cells.
// Missing fields default to "". The identity key is the card's detail href.
func BuildListing(fields map[string]string, cells []string, basePath string, now time.Time) models.Listing {
	cell := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}

	station := ""
	if line := cell(cellLine); line != "" {
		station = strings.TrimSpace(line + " " + cell(cellWalk))
	}

	l := models.Listing{
		Category:    fields[FieldCategory],
		Name:        fields[FieldName],
		Address:     cell(cellAddress),
		Station:     station,
		Description: fields[FieldDescription],
		Image:       fields[FieldImage],
		Price:       cell(cellPrice),
		Size:        cell(cellSize),
		Age:         cell(cellAge),
		UpdatedAt:   now,
	}

	l.SalePriceUnits, l.RentPriceUnits = units.ExtractPrice(l.Price)
	l.AreaM2 = units.ParseAreaM2(l.Size)

	href := strings.TrimSpace(fields[FieldHref])
	if href == "" {
		l.ID = NoLinkKey(l.Name, l.Address, l.Price)
		return l
	}
	l.ID = href
	l.URL = joinBase(basePath, href)
	return l
}

// NoLinkKey derives a stable identity for a card without a detail link.
func NoLinkKey(name, address, price string) string {
	sum := sha256.Sum256([]byte(name + "\x00" + address + "\x00" + price))
	return fmt.Sprintf("%s%x", NoLinkPrefix, sum)
}

// Absolute hrefs are kept as they are; relative ones are appended to basePath.
func joinBase(basePath, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return basePath + href
}

// Label sets searched in a detail page's field table, most specific first.
var (
	SaleLabels = []string{"価格", "販売価格", "購入価格"}
	RentLabels = []string{"賃料", "月々支払額"}
	AreaLabels = []string{"専有面積", "建物面積", "土地面積", "面積"}
)

// DetailPage is everything extracted from one detail page before typing.
type DetailPage struct {
	Title       string
	Description string
	Features    []string
	Images      []string
	Fields      map[string]string
	Coordinates *models.Coordinates
}

// BuildDetail composes a Detail from an extracted page. Raw fields pass through verbatim.
// ListingID is left for the caller to set.
func BuildDetail(page DetailPage, sourceURL string, now time.Time) *models.Detail {
	fields := page.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	images := page.Images
	if images == nil {
		images = []string{}
	}

	d := &models.Detail{
		ID:          uuid.NewString(),
		SourceURL:   sourceURL,
		Title:       page.Title,
		Description: page.Description,
		Features:    page.Features,
		Images:      images,
		Fields:      fields,
		Coordinates: page.Coordinates,
		ScrapedAt:   now,
	}

	if raw, ok := lookup(fields, SaleLabels); ok {
		d.SalePriceUnits = units.ParseMagnitude(raw)
	}
	if raw, ok := lookup(fields, RentLabels); ok {
		d.RentPriceUnits = units.ParseMagnitude(raw)
	}
	if raw, ok := lookup(fields, AreaLabels); ok {
		d.AreaM2 = units.ParseAreaM2(raw)
	}
	return d
}

func lookup(fields map[string]string, labels []string) (string, bool) {
	for _, label := range labels {
		if v, ok := fields[label]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}
