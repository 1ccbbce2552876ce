package contracts

import (
	"context"
)

// SearchAdapter is the marketplace adapter contract. Implementations normalize
// their native payloads into RawProduct and tag themselves via Marketplace().
// Transport failures are expected to degrade to an empty slice plus a log line
// at the registry boundary; the pipeline never aborts on adapter errors.
type SearchAdapter interface {
	// Marketplace returns the source identifier (e.g. "Mercado Livre").
	Marketplace() string

	// Search returns raw products matching the niche keyword.
	Search(ctx context.Context, keyword string) ([]RawProduct, error)
}

// ProductStore is the keyed upsert store for products.
type ProductStore interface {
	// Upsert inserts or updates a product by (marketplace, external_id)
	// and returns the persisted row including its identifier.
	Upsert(ctx context.Context, product EnrichedProduct) (*Product, error)
}

// PriceHistoryStore is the append-only price observation log.
type PriceHistoryStore interface {
	Append(ctx context.Context, entry PriceHistoryEntry) error
}

// Exporter receives one niche's batch of export rows.
type Exporter interface {
	Export(ctx context.Context, niche string, rows []ExportRow) error
}

// AffiliateLinker derives a tracking link from a product's canonical URL.
// Pure and total; degraded configuration still yields a well-formed link.
type AffiliateLinker interface {
	Link(permalink string) string
}

// KeywordExpander widens a niche into related search keywords.
type KeywordExpander interface {
	Expand(ctx context.Context, theme string) ([]string, error)
}
