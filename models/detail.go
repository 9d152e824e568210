package models

import "time"

// Coordinates is a map position read from an inline script on the detail page.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Detail is the enrichment record scraped from a listing's own page.
// Fields keeps the site's table labels verbatim as keys.
type Detail struct {
	ID        string `json:"id" bson:"_id"`
	ListingID string `json:"listing_id" bson:"listingId"`
	SourceURL string `json:"source_url" bson:"sourceUrl"`

	Title       string            `json:"title,omitempty" bson:"title,omitempty"`
	Description string            `json:"description,omitempty" bson:"description,omitempty"`
	Features    []string          `json:"features,omitempty" bson:"features,omitempty"`
	Images      []string          `json:"images" bson:"images"`
	Fields      map[string]string `json:"fields" bson:"fields"`
	Coordinates *Coordinates      `json:"coordinates,omitempty" bson:"mapCoordinates,omitempty"`

	SalePriceUnits *int64   `json:"sale_price_units,omitempty" bson:"salePriceUnits"`
	RentPriceUnits *int64   `json:"rent_price_units,omitempty" bson:"rentPriceUnits"`
	AreaM2         *float64 `json:"area_m2,omitempty" bson:"areaM2"`

	ScrapedAt time.Time `json:"scraped_at" bson:"scrapedAt"`
}
