// Package shopee queries the Shopee Partner API v2 and normalizes its
// search results.
package shopee

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"garimpeiro/internal/contracts"
	"garimpeiro/pkg/config"
	"garimpeiro/pkg/httputil"
	"garimpeiro/pkg/logger"
)

// MarketplaceName tags records produced by this adapter.
const MarketplaceName = "Shopee"

// Adapter implements contracts.SearchAdapter for Shopee.
type Adapter struct {
	cfg    config.ShopeeConfig
	limit  int
	client *httputil.Client
	logger *logger.Logger

	// now is swappable for signature tests
	now func() time.Time
}

// New creates the Shopee adapter.
func New(cfg config.ShopeeConfig, limit int, client *httputil.Client, log *logger.Logger) *Adapter {
	return &Adapter{
		cfg:    cfg,
		limit:  limit,
		client: client,
		logger: log,
		now:    time.Now,
	}
}

// Marketplace returns the source identifier.
func (a *Adapter) Marketplace() string {
	return MarketplaceName
}

// sign produces the partner signature for one API path at one timestamp.
func (a *Adapter) sign(path string, timestamp int64) string {
	base := fmt.Sprintf("%s%s%d%s%s", a.cfg.PartnerID, path, timestamp, a.cfg.PartnerKey, a.cfg.ShopID)
	mac := hmac.New(sha256.New, []byte(a.cfg.PartnerKey))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}

type searchResponse struct {
	Response struct {
		Items []searchItem `json:"items"`
	} `json:"response"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type searchItem struct {
	ItemID              int64   `json:"item_id"`
	ItemName            string  `json:"item_name"`
	Price               float64 `json:"price"`
	PriceBeforeDiscount float64 `json:"price_before_discount"`
	Image               string  `json:"image"`
	HistoricalSold      int     `json:"historical_sold"`
	ItemRating          struct {
		RatingStar float64 `json:"rating_star"`
	} `json:"item_rating"`
}

// Search queries the product search endpoint for a niche keyword.
func (a *Adapter) Search(ctx context.Context, keyword string) ([]contracts.RawProduct, error) {
	const path = "/product/search"
	timestamp := a.now().Unix()

	params := url.Values{}
	params.Set("partner_id", a.cfg.PartnerID)
	params.Set("shop_id", a.cfg.ShopID)
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))
	params.Set("sign", a.sign(path, timestamp))
	params.Set("keyword", keyword)
	params.Set("limit", strconv.Itoa(a.limit))
	params.Set("offset", "0")

	searchURL := fmt.Sprintf("%s%s?%s", a.cfg.BaseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("search rejected: %s: %s", result.Error, result.Message)
	}

	products := make([]contracts.RawProduct, 0, len(result.Response.Items))
	for _, it := range result.Response.Items {
		itemID := strconv.FormatInt(it.ItemID, 10)

		products = append(products, contracts.RawProduct{
			ExternalID:    itemID,
			Title:         it.ItemName,
			Price:         it.Price,
			OriginalPrice: it.PriceBeforeDiscount,
			Permalink:     fmt.Sprintf("https://shopee.com.br/product/%s/%s", a.cfg.ShopID, itemID),
			Thumbnail:     it.Image,
			SoldQuantity:  it.HistoricalSold,
			Rating:        it.ItemRating.RatingStar,
		})
	}

	a.logger.WithFields(map[string]interface{}{
		"keyword": keyword,
		"results": len(products),
	}).Debug("Shopee search completed")

	return products, nil
}
