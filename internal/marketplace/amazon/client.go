// Package amazon queries the Amazon Product Advertising API v5 and
// normalizes its SearchItems results.
package amazon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"garimpeiro/internal/contracts"
	"garimpeiro/pkg/config"
	"garimpeiro/pkg/httputil"
	"garimpeiro/pkg/logger"
)

// MarketplaceName tags records produced by this adapter.
const MarketplaceName = "Amazon"

// locale maps an Amazon marketplace code to its PA-API endpoint.
type locale struct {
	Host        string
	Region      string
	Marketplace string
}

var locales = map[string]locale{
	"BR": {Host: "webservices.amazon.com.br", Region: "us-east-1", Marketplace: "www.amazon.com.br"},
	"US": {Host: "webservices.amazon.com", Region: "us-east-1", Marketplace: "www.amazon.com"},
	"AU": {Host: "webservices.amazon.com.au", Region: "us-west-2", Marketplace: "www.amazon.com.au"},
}

// Adapter implements contracts.SearchAdapter for Amazon PA-API v5.
type Adapter struct {
	cfg    config.AmazonConfig
	loc    locale
	client *httputil.Client
	logger *logger.Logger

	// now is swappable for signature tests
	now func() time.Time
}

// New creates the Amazon adapter.
func New(cfg config.AmazonConfig, client *httputil.Client, log *logger.Logger) *Adapter {
	loc, ok := locales[cfg.Locale]
	if !ok {
		loc = locales["BR"]
	}
	return &Adapter{
		cfg:    cfg,
		loc:    loc,
		client: client,
		logger: log,
		now:    time.Now,
	}
}

// Marketplace returns the source identifier.
func (a *Adapter) Marketplace() string {
	return MarketplaceName
}

type searchItemsRequest struct {
	Keywords    string   `json:"Keywords"`
	Resources   []string `json:"Resources"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
	ItemCount   int      `json:"ItemCount"`
}

type searchItemsResponse struct {
	SearchResult struct {
		Items []item `json:"Items"`
	} `json:"SearchResult"`
	Errors []struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	} `json:"Errors"`
}

type item struct {
	ASIN          string `json:"ASIN"`
	DetailPageURL string `json:"DetailPageURL"`
	Images        struct {
		Primary struct {
			Large struct {
				URL string `json:"URL"`
			} `json:"Large"`
		} `json:"Primary"`
	} `json:"Images"`
	ItemInfo struct {
		Title struct {
			DisplayValue string `json:"DisplayValue"`
		} `json:"Title"`
		CustomerReviews struct {
			StarRating struct {
				DisplayValue float64 `json:"DisplayValue"`
			} `json:"StarRating"`
		} `json:"CustomerReviews"`
	} `json:"ItemInfo"`
	Offers struct {
		Listings []struct {
			Price struct {
				Amount float64 `json:"Amount"`
			} `json:"Price"`
			SavingBasis struct {
				Amount float64 `json:"Amount"`
			} `json:"SavingBasis"`
		} `json:"Listings"`
	} `json:"Offers"`
}

// Search runs a SearchItems call for a niche keyword.
func (a *Adapter) Search(ctx context.Context, keyword string) ([]contracts.RawProduct, error) {
	payload := searchItemsRequest{
		Keywords: keyword,
		Resources: []string{
			"ItemInfo.Title",
			"Images.Primary.Large",
			"Offers.Listings.Price",
			"Offers.Listings.SavingBasis",
			"CustomerReviews.StarRating",
		},
		PartnerTag:  a.cfg.PartnerTag,
		PartnerType: "Associates",
		Marketplace: a.loc.Marketplace,
		ItemCount:   10,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search payload: %w", err)
	}

	searchURL := fmt.Sprintf("https://%s/paapi5/searchitems", a.loc.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Host = a.loc.Host
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Amz-Target", "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems")
	req.Header.Set("Content-Encoding", "amz-1.0")
	signRequest(req, body, a.cfg.AccessKey, a.cfg.SecretKey, a.loc.Region, a.now())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	var result searchItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search rejected: %s: %s", result.Errors[0].Code, result.Errors[0].Message)
	}

	products := make([]contracts.RawProduct, 0, len(result.SearchResult.Items))
	for _, it := range result.SearchResult.Items {
		if len(it.Offers.Listings) == 0 {
			continue
		}
		listing := it.Offers.Listings[0]

		products = append(products, contracts.RawProduct{
			ExternalID:    it.ASIN,
			Title:         it.ItemInfo.Title.DisplayValue,
			Price:         listing.Price.Amount,
			OriginalPrice: listing.SavingBasis.Amount,
			Permalink:     it.DetailPageURL,
			Thumbnail:     it.Images.Primary.Large.URL,
			Rating:        it.ItemInfo.CustomerReviews.StarRating.DisplayValue,
		})
	}

	a.logger.WithFields(map[string]interface{}{
		"keyword": keyword,
		"results": len(products),
	}).Debug("Amazon search completed")

	return products, nil
}
