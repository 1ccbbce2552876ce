package contracts

import (
	"fmt"
	"time"
)

// RawProduct is the normalized shape every marketplace adapter must produce.
// Zero values stand for absent optional fields (OriginalPrice, Rating).
type RawProduct struct {
	ExternalID    string  `json:"external_id"`
	Title         string  `json:"title"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price"`
	Permalink     string  `json:"permalink"`
	Thumbnail     string  `json:"thumbnail"`
	SoldQuantity  int     `json:"sold_quantity"`
	Rating        float64 `json:"rating"`
}

// ScoredProduct is a RawProduct that passed the promotion filter.
type ScoredProduct struct {
	RawProduct

	DiscountPct float64 `json:"discount_pct"`
	Score       float64 `json:"score"`
}

// EnrichedProduct is a ScoredProduct with the pipeline-assigned fields stamped on.
type EnrichedProduct struct {
	ScoredProduct

	Niche          string    `json:"niche"`
	Marketplace    string    `json:"marketplace"`
	CollectionDate time.Time `json:"collection_date"`
	AffiliateLink  string    `json:"affiliate_link"`
}

// Product is the persisted entity, keyed by (marketplace, external_id).
// Mutable fields are overwritten on every sighting; rows are never deleted.
type Product struct {
	ID            int64     `json:"id"`
	Marketplace   string    `json:"marketplace"`
	ExternalID    string    `json:"external_id"`
	Title         string    `json:"title"`
	ImageURL      string    `json:"image_url"`
	URL           string    `json:"url"`
	AffiliateLink string    `json:"affiliate_link"`
	Niche         string    `json:"niche"`
	Rating        float64   `json:"rating"`
	Score         int       `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PriceHistoryEntry is one append-only price observation for a product.
type PriceHistoryEntry struct {
	ID             int64     `json:"id"`
	ProductID      int64     `json:"product_id"`
	CollectionDate time.Time `json:"collection_date"`
	CurrentPrice   float64   `json:"current_price"`
	OriginalPrice  float64   `json:"original_price"`
	DiscountPct    float64   `json:"discount_pct"`
	Score          float64   `json:"score"`
	CreatedAt      time.Time `json:"created_at"`
}

// ExportRow is one spreadsheet line for a niche batch.
type ExportRow struct {
	CollectionDate string
	Niche          string
	Title          string
	OriginalPrice  float64
	Price          float64
	DiscountPct    string
	SoldQuantity   int
	AffiliateLink  string
	Rating         string
}

// DateLayout is the logical collection date format used in export rows and cache keys.
const DateLayout = "2006-01-02"

// BuildExportRow shapes an enriched product into its spreadsheet row.
func BuildExportRow(p EnrichedProduct) ExportRow {
	return ExportRow{
		CollectionDate: p.CollectionDate.Format(DateLayout),
		Niche:          p.Niche,
		Title:          p.Title,
		OriginalPrice:  p.OriginalPrice,
		Price:          p.Price,
		DiscountPct:    FormatDiscountPct(p.OriginalPrice, p.Price),
		SoldQuantity:   p.SoldQuantity,
		AffiliateLink:  p.AffiliateLink,
		Rating:         FormatRating(p.Rating),
	}
}

// FormatDiscountPct renders the discount percentage with two decimals,
// or "0" when there is no usable discount data.
func FormatDiscountPct(originalPrice, price float64) string {
	if originalPrice <= 0 || originalPrice <= price {
		return "0"
	}
	return fmt.Sprintf("%.2f", (originalPrice-price)/originalPrice*100)
}

// FormatRating renders the rating, or "N/A" when the marketplace reported none.
func FormatRating(rating float64) string {
	if rating <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", rating)
}

// Values returns the row as the 9-element slice sent to the spreadsheet API.
func (r ExportRow) Values() []interface{} {
	return []interface{}{
		r.CollectionDate,
		r.Niche,
		r.Title,
		r.OriginalPrice,
		r.Price,
		r.DiscountPct,
		r.SoldQuantity,
		r.AffiliateLink,
		r.Rating,
	}
}
