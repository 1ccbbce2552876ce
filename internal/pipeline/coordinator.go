package pipeline

import (
	"context"
	"time"

	"garimpeiro/internal/contracts"
	"garimpeiro/pkg/logger"
)

// Coordinator drives persistence and export-row assembly for one niche's
// selected batch. One bad record never blocks its siblings: product upsert
// failures skip the record, history failures skip only the history write.
type Coordinator struct {
	products contracts.ProductStore
	history  contracts.PriceHistoryStore
	linker   contracts.AffiliateLinker
	logger   *logger.Logger
}

// NewCoordinator creates a new ingestion coordinator
func NewCoordinator(
	products contracts.ProductStore,
	history contracts.PriceHistoryStore,
	linker contracts.AffiliateLinker,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		products: products,
		history:  history,
		linker:   linker,
		logger:   log,
	}
}

// BatchStats counts the outcomes of one batch ingestion.
type BatchStats struct {
	Selected      int
	Ingested      int
	Skipped       int
	HistoryErrors int
}

// IngestBatch processes one niche's selected products in order: affiliate link,
// stamp, product upsert, price-history append, export row. Returns the export
// rows for the records that were persisted, plus counters. Failures are logged
// and absorbed; the batch always runs to completion.
func (c *Coordinator) IngestBatch(
	ctx context.Context,
	niche string,
	marketplace string,
	collectionDate time.Time,
	batch []contracts.ScoredProduct,
) ([]contracts.ExportRow, BatchStats) {
	stats := BatchStats{Selected: len(batch)}
	rows := make([]contracts.ExportRow, 0, len(batch))

	log := c.logger.WithFields(map[string]interface{}{
		"niche":       niche,
		"marketplace": marketplace,
	})

	for _, product := range batch {
		enriched := contracts.EnrichedProduct{
			ScoredProduct:  product,
			Niche:          niche,
			Marketplace:    marketplace,
			CollectionDate: collectionDate,
			AffiliateLink:  c.linker.Link(product.Permalink),
		}

		persisted, err := c.products.Upsert(ctx, enriched)
		if err != nil {
			stats.Skipped++
			log.WithError(err).WithField("external_id", product.ExternalID).
				Error("Product upsert failed, skipping record")
			continue
		}

		entry := contracts.PriceHistoryEntry{
			ProductID:      persisted.ID,
			CollectionDate: collectionDate,
			CurrentPrice:   product.Price,
			OriginalPrice:  product.OriginalPrice,
			DiscountPct:    product.DiscountPct,
			Score:          product.Score,
		}
		if err := c.history.Append(ctx, entry); err != nil {
			// Product row is already committed; only the observation is lost.
			stats.HistoryErrors++
			log.WithError(err).WithField("product_id", persisted.ID).
				Error("Price history append failed")
		}

		rows = append(rows, contracts.BuildExportRow(enriched))
		stats.Ingested++
	}

	log.WithFields(map[string]interface{}{
		"selected":       stats.Selected,
		"ingested":       stats.Ingested,
		"skipped":        stats.Skipped,
		"history_errors": stats.HistoryErrors,
	}).Info("Batch ingestion completed")

	return rows, stats
}
