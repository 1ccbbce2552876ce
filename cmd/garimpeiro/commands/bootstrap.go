package commands

import (
	"fmt"

	"garimpeiro/internal/affiliate"
	"garimpeiro/internal/contracts"
	"garimpeiro/internal/export"
	"garimpeiro/internal/keywords"
	"garimpeiro/internal/marketplace"
	"garimpeiro/internal/openai"
	"garimpeiro/internal/pipeline"
	"garimpeiro/internal/ranking"
	"garimpeiro/internal/social"
	"garimpeiro/internal/storage/postgres"
	"garimpeiro/pkg/config"
	"garimpeiro/pkg/database"
	"garimpeiro/pkg/httputil"
	"garimpeiro/pkg/logger"
	"garimpeiro/pkg/redis"
)

// app wires the full dependency graph once for every command.
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.DB
	rds *redis.Client

	products *postgres.ProductRepository
	history  *postgres.PriceHistoryRepository

	miner *pipeline.Miner
	flow  *social.Flow
}

// initApp loads configuration and builds the pipeline and social flow.
func initApp() (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Connect to Redis (optional; caching and rate limits degrade to no-ops)
	rds, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rds = redis.Disabled()
	}

	// 5. Create repositories
	products := postgres.NewProductRepository(db.Pool)
	history := postgres.NewPriceHistoryRepository(db.Pool)

	// 6. Create marketplace adapters
	adapters := marketplace.Build(cfg, rds, log)

	// 7. Create the exporter
	exportClient := httputil.New(log)
	exporter, err := export.NewSheetsExporter(cfg.Sheets, exportClient, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sheets exporter: %w", err)
	}

	// 8. Create the OpenAI-backed helpers
	aiClient := openai.New(cfg.OpenAI, httputil.New(log))
	var expander contracts.KeywordExpander
	if aiClient.Enabled() {
		expander = keywords.NewExpander(aiClient, log)
	}

	// 9. Assemble the pipeline
	linker := affiliate.NewLinker(cfg.Affiliate)
	ranker := ranking.NewRanker(log)
	coordinator := pipeline.NewCoordinator(products, history, linker, log)
	miner := pipeline.NewMiner(adapters, ranker, coordinator, exporter, expander, cfg.Mining, log)

	// 10. Assemble the social flow
	captionWriter := social.NewCaptionWriter(aiClient, log)
	poster := social.NewPoster(cfg.Social, httputil.New(log), log)
	flow := social.NewFlow(products, captionWriter, poster, cfg.Social, log)

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		rds:      rds,
		products: products,
		history:  history,
		miner:    miner,
		flow:     flow,
	}, nil
}

// Close releases the app's connections.
func (a *app) Close() {
	if a.rds != nil {
		a.rds.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
