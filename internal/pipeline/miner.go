package pipeline

import (
	"context"
	"time"

	"garimpeiro/internal/contracts"
	"garimpeiro/internal/ranking"
	"garimpeiro/pkg/config"
	"garimpeiro/pkg/logger"
)

// Miner runs the full mining pass: for every configured niche, query each
// enabled marketplace, filter and rank the results, ingest the top selection
// and export the niche batch. Niches and records are processed strictly one
// at a time; nothing aborts the overall pass.
type Miner struct {
	adapters    []contracts.SearchAdapter
	ranker      *ranking.Ranker
	coordinator *Coordinator
	exporter    contracts.Exporter
	keywords    contracts.KeywordExpander // nil when keyword expansion is off
	cfg         config.MiningConfig
	logger      *logger.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewMiner creates a new miner
func NewMiner(
	adapters []contracts.SearchAdapter,
	ranker *ranking.Ranker,
	coordinator *Coordinator,
	exporter contracts.Exporter,
	keywords contracts.KeywordExpander,
	cfg config.MiningConfig,
	log *logger.Logger,
) *Miner {
	return &Miner{
		adapters:    adapters,
		ranker:      ranker,
		coordinator: coordinator,
		exporter:    exporter,
		keywords:    keywords,
		cfg:         cfg,
		logger:      log,
		now:         time.Now,
	}
}

// RunStats aggregates counters for one full mining pass.
type RunStats struct {
	Niches        int
	EmptyNiches   int
	Ingested      int
	Skipped       int
	ExportErrors  int
	HistoryErrors int
	Duration      time.Duration
}

// Run executes one full pass over all configured niches. Best-effort batch
// job semantics: per-record and per-niche failures are logged and absorbed.
func (m *Miner) Run(ctx context.Context) RunStats {
	start := m.now()
	collectionDate := start.Truncate(24 * time.Hour)

	stats := RunStats{Niches: len(m.cfg.Niches)}

	m.logger.WithFields(map[string]interface{}{
		"niches":          len(m.cfg.Niches),
		"marketplaces":    len(m.adapters),
		"top_per_niche":   m.cfg.TopPerNiche,
		"collection_date": collectionDate.Format(contracts.DateLayout),
	}).Info("Starting mining pass")

	for _, niche := range m.cfg.Niches {
		if ctx.Err() != nil {
			m.logger.Warn("Mining pass cancelled")
			break
		}
		m.runNiche(ctx, niche, collectionDate, &stats)
	}

	stats.Duration = time.Since(start)

	m.logger.WithFields(map[string]interface{}{
		"ingested":      stats.Ingested,
		"skipped":       stats.Skipped,
		"empty_niches":  stats.EmptyNiches,
		"export_errors": stats.ExportErrors,
		"duration":      stats.Duration,
	}).Info("Mining pass completed")

	return stats
}

// RunNiche executes the pipeline for a single niche. Exposed for the CLI's
// --niche flag.
func (m *Miner) RunNiche(ctx context.Context, niche string) RunStats {
	start := m.now()
	stats := RunStats{Niches: 1}
	m.runNiche(ctx, niche, start.Truncate(24*time.Hour), &stats)
	stats.Duration = time.Since(start)
	return stats
}

func (m *Miner) runNiche(ctx context.Context, niche string, collectionDate time.Time, stats *RunStats) {
	log := m.logger.WithField("niche", niche)
	log.Info("Processing niche")

	keywords := m.searchKeywords(ctx, niche)

	nicheRows := make([]contracts.ExportRow, 0, m.cfg.TopPerNiche*len(m.adapters))

	for _, adapter := range m.adapters {
		raw := m.search(ctx, adapter, keywords)
		if len(raw) == 0 {
			log.WithField("marketplace", adapter.Marketplace()).Debug("No products found")
			continue
		}

		scored := m.ranker.FilterAndScore(raw)
		selected := m.ranker.SelectTop(scored, m.cfg.TopPerNiche)
		if len(selected) == 0 {
			continue
		}

		rows, batchStats := m.coordinator.IngestBatch(ctx, niche, adapter.Marketplace(), collectionDate, selected)
		stats.Ingested += batchStats.Ingested
		stats.Skipped += batchStats.Skipped
		stats.HistoryErrors += batchStats.HistoryErrors
		nicheRows = append(nicheRows, rows...)
	}

	if len(nicheRows) == 0 {
		stats.EmptyNiches++
		log.Info("Nothing to export for niche")
		return
	}

	if err := m.exporter.Export(ctx, niche, nicheRows); err != nil {
		// Data is persisted; only the spreadsheet is behind.
		stats.ExportErrors++
		log.WithError(err).Error("Niche export failed")
		return
	}

	log.WithField("rows", len(nicheRows)).Info("Niche exported")
}

// searchKeywords returns the keywords to search for a niche: the niche itself,
// optionally widened through the keyword expander.
func (m *Miner) searchKeywords(ctx context.Context, niche string) []string {
	if !m.cfg.ExpandKeywords || m.keywords == nil {
		return []string{niche}
	}

	expanded, err := m.keywords.Expand(ctx, niche)
	if err != nil || len(expanded) == 0 {
		if err != nil {
			m.logger.WithError(err).WithField("niche", niche).Warn("Keyword expansion failed")
		}
		return []string{niche}
	}

	return append([]string{niche}, expanded...)
}

// search queries one adapter for all keywords and merges the results,
// deduplicating by external id. Adapter errors degrade to an empty result.
func (m *Miner) search(ctx context.Context, adapter contracts.SearchAdapter, keywords []string) []contracts.RawProduct {
	seen := make(map[string]bool)
	var merged []contracts.RawProduct

	for _, keyword := range keywords {
		products, err := adapter.Search(ctx, keyword)
		if err != nil {
			m.logger.WithError(err).WithFields(map[string]interface{}{
				"marketplace": adapter.Marketplace(),
				"keyword":     keyword,
			}).Warn("Marketplace search failed")
			continue
		}

		for _, p := range products {
			if p.ExternalID == "" || seen[p.ExternalID] {
				continue
			}
			seen[p.ExternalID] = true
			merged = append(merged, p)
		}
	}

	return merged
}
