package models

import (
	"net/url"
	"strings"
	"time"
)

// Listing is a summary record scraped from one card of a paginated result page.
// ID is unique across the listings collection.
type Listing struct {
	ID          string `json:"id" bson:"_id"`
	Category    string `json:"category" bson:"category"`
	Name        string `json:"name" bson:"name"`
	Address     string `json:"address" bson:"address"`
	Station     string `json:"station" bson:"station"`
	Description string `json:"description" bson:"description"`
	Image       string `json:"image" bson:"image"`
	URL         string `json:"url" bson:"url"`

	// Raw cell text as shown on the result page
	Price string `json:"price" bson:"price"`
	Size  string `json:"size" bson:"size"`
	Age   string `json:"age" bson:"age"`

	SalePriceUnits *int64   `json:"sale_price_units,omitempty" bson:"salePriceUnits"`
	RentPriceUnits *int64   `json:"rent_price_units,omitempty" bson:"rentPriceUnits"`
	AreaM2         *float64 `json:"area_m2,omitempty" bson:"areaM2"`

	UpdatedAt time.Time `json:"updated_at" bson:"updatedAt"`

	// Enrichment bookkeeping, only ever written by the enrichment controller
	Processed       bool       `json:"processed" bson:"processed"`
	ProcessingError string     `json:"processing_error,omitempty" bson:"processingError,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty" bson:"processedAt,omitempty"`
}

// HasDetailURL reports whether the listing carries an absolute http(s) link to its detail page.
func (l Listing) HasDetailURL() bool {
	u, err := url.Parse(strings.TrimSpace(l.URL))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
