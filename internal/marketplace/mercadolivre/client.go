// Package mercadolivre queries the Mercado Livre search API and normalizes
// its results. Falls back to scraping the public offers page when no API
// credentials are configured.
package mercadolivre

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"garimpeiro/internal/contracts"
	"garimpeiro/pkg/config"
	"garimpeiro/pkg/httputil"
	"garimpeiro/pkg/logger"
)

// MarketplaceName tags records produced by this adapter.
const MarketplaceName = "Mercado Livre"

// Adapter implements contracts.SearchAdapter for Mercado Livre.
type Adapter struct {
	cfg     config.MercadoLivreConfig
	client  *httputil.Client
	tokens  *TokenSource
	scraper *OffersScraper
	limit   int
	logger  *logger.Logger
}

// New creates the Mercado Livre adapter.
func New(cfg config.MercadoLivreConfig, limit int, client *httputil.Client, log *logger.Logger) *Adapter {
	a := &Adapter{
		cfg:    cfg,
		client: client,
		tokens: NewTokenSource(cfg, client, log),
		limit:  limit,
		logger: log,
	}
	if a.tokens == nil {
		a.scraper = NewOffersScraper(client, log)
	}
	return a
}

// Marketplace returns the source identifier.
func (a *Adapter) Marketplace() string {
	return MarketplaceName
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price"`
	Permalink     string  `json:"permalink"`
	Thumbnail     string  `json:"thumbnail"`
	SoldQuantity  int     `json:"sold_quantity"`
	RatingAverage float64 `json:"rating_average"`
}

// Search queries the search API for a niche keyword. On auth expiry the token
// is refreshed and the request retried exactly once before giving up.
func (a *Adapter) Search(ctx context.Context, keyword string) ([]contracts.RawProduct, error) {
	if a.tokens == nil {
		return a.scraper.Search(ctx, keyword)
	}

	resp, err := a.doSearch(ctx, keyword)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		a.logger.Warn("Mercado Livre auth expired, refreshing token")
		if err := a.tokens.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("auth expired and refresh failed: %w", err)
		}
		resp, err = a.doSearch(ctx, keyword)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	products := make([]contracts.RawProduct, 0, len(result.Results))
	for _, item := range result.Results {
		products = append(products, contracts.RawProduct{
			ExternalID:    item.ID,
			Title:         item.Title,
			Price:         item.Price,
			OriginalPrice: item.OriginalPrice,
			Permalink:     item.Permalink,
			Thumbnail:     item.Thumbnail,
			SoldQuantity:  item.SoldQuantity,
			Rating:        item.RatingAverage,
		})
	}

	a.logger.WithFields(map[string]interface{}{
		"keyword": keyword,
		"results": len(products),
	}).Debug("Mercado Livre search completed")

	return products, nil
}

func (a *Adapter) doSearch(ctx context.Context, keyword string) (*http.Response, error) {
	searchURL := fmt.Sprintf("%s/sites/%s/search?q=%s&limit=%d&sort=price_asc",
		a.cfg.BaseURL, a.cfg.SiteID, url.QueryEscape(keyword), a.limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	if token := a.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return a.client.Do(req)
}
