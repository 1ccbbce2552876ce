// Package marketplace assembles the closed set of enabled marketplace
// adapters and wraps them with caching and graceful degradation.
package marketplace

import (
	"context"
	"time"

	"garimpeiro/internal/contracts"
	"garimpeiro/internal/marketplace/amazon"
	"garimpeiro/internal/marketplace/mercadolivre"
	"garimpeiro/internal/marketplace/shopee"
	"garimpeiro/pkg/config"
	"garimpeiro/pkg/httputil"
	"garimpeiro/pkg/logger"
	"garimpeiro/pkg/redis"
)

// Build returns the enabled adapters in fixed order: Mercado Livre always,
// Amazon and Shopee only when credentials are configured. Each adapter gets
// its own rate-limited HTTP client and a search-response cache.
func Build(cfg *config.Config, rds *redis.Client, log *logger.Logger) []contracts.SearchAdapter {
	limiter := redis.NewRateLimiter(rds, "garimpeiro")
	cache := redis.NewCache(rds, "garimpeiro")

	var adapters []contracts.SearchAdapter

	meliClient := httputil.New(log).
		WithRateLimiter(limiter, redis.MeliRateLimit).
		WithLocalRateLimit(10, 5)
	meli := mercadolivre.New(cfg.MercadoLivre, cfg.Mining.SearchLimit, meliClient, log)
	adapters = append(adapters, wrap(meli, cache, log))

	if cfg.Amazon.AccessKey != "" && cfg.Amazon.SecretKey != "" && cfg.Amazon.PartnerTag != "" {
		amazonClient := httputil.New(log).
			WithRateLimiter(limiter, redis.AmazonRateLimit).
			WithLocalRateLimit(1, 1)
		adapters = append(adapters, wrap(amazon.New(cfg.Amazon, amazonClient, log), cache, log))
	}

	if cfg.Shopee.PartnerID != "" && cfg.Shopee.PartnerKey != "" {
		shopeeClient := httputil.New(log).
			WithRateLimiter(limiter, redis.ShopeeRateLimit).
			WithLocalRateLimit(10, 5)
		adapters = append(adapters, wrap(shopee.New(cfg.Shopee, cfg.Mining.SearchLimit, shopeeClient, log), cache, log))
	}

	return adapters
}

// wrap decorates an adapter with the search cache and the degrade-to-empty
// error policy the pipeline expects at its boundary.
func wrap(inner contracts.SearchAdapter, cache *redis.Cache, log *logger.Logger) contracts.SearchAdapter {
	return &cachedAdapter{
		inner:  inner,
		cache:  cache,
		logger: log,
		now:    time.Now,
	}
}

// cachedAdapter caches search responses per collection date and converts
// adapter errors into logged empty results.
type cachedAdapter struct {
	inner  contracts.SearchAdapter
	cache  *redis.Cache
	logger *logger.Logger
	now    func() time.Time
}

func (c *cachedAdapter) Marketplace() string {
	return c.inner.Marketplace()
}

func (c *cachedAdapter) Search(ctx context.Context, keyword string) ([]contracts.RawProduct, error) {
	key := redis.SearchKey(c.inner.Marketplace(), keyword, c.now().Format(contracts.DateLayout))

	var cached []contracts.RawProduct
	if found, err := c.cache.Get(ctx, key, &cached); err == nil && found {
		return cached, nil
	}

	products, err := c.inner.Search(ctx, keyword)
	if err != nil {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"marketplace": c.inner.Marketplace(),
			"keyword":     keyword,
		}).Warn("Marketplace search degraded to empty result")
		return nil, nil
	}

	if err := c.cache.Set(ctx, key, products, redis.TTLSearch); err != nil {
		c.logger.WithError(err).Debug("Search cache write failed")
	}

	return products, nil
}
