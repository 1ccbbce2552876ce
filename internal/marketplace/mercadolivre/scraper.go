package mercadolivre

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"garimpeiro/internal/contracts"
	"garimpeiro/pkg/httputil"
	"garimpeiro/pkg/logger"
)

// offersBaseURL is the public listing page scraped when no API credentials
// are configured.
const offersBaseURL = "https://lista.mercadolivre.com.br"

// OffersScraper extracts promotions from the public search listing HTML.
// Lower fidelity than the API: sold quantity and rating are not present on
// the listing page and default to zero.
type OffersScraper struct {
	client *httputil.Client
	logger *logger.Logger
}

// NewOffersScraper creates a new scraper
func NewOffersScraper(client *httputil.Client, log *logger.Logger) *OffersScraper {
	return &OffersScraper{client: client, logger: log}
}

// Search scrapes the listing page for a keyword.
func (s *OffersScraper) Search(ctx context.Context, keyword string) ([]contracts.RawProduct, error) {
	pageURL := fmt.Sprintf("%s/%s", offersBaseURL, url.PathEscape(strings.ReplaceAll(keyword, " ", "-")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	var products []contracts.RawProduct

	doc.Find("li.ui-search-layout__item").Each(func(i int, item *goquery.Selection) {
		link, ok := item.Find("a.ui-search-link").Attr("href")
		if !ok {
			return
		}

		title := strings.TrimSpace(item.Find("h2.ui-search-item__title").Text())
		thumbnail, _ := item.Find("img.ui-search-result-image__element").Attr("data-src")
		if thumbnail == "" {
			thumbnail, _ = item.Find("img.ui-search-result-image__element").Attr("src")
		}

		prices := item.Find(".andes-money-amount__fraction")
		var price, originalPrice float64
		if item.Find("s.andes-money-amount--previous").Length() > 0 && prices.Length() >= 2 {
			// First amount is the struck-through list price
			originalPrice = parsePrice(prices.Eq(0).Text())
			price = parsePrice(prices.Eq(1).Text())
		} else if prices.Length() >= 1 {
			price = parsePrice(prices.Eq(0).Text())
		}

		if price <= 0 && originalPrice <= 0 {
			return
		}

		products = append(products, contracts.RawProduct{
			ExternalID:    externalIDFromLink(link),
			Title:         title,
			Price:         price,
			OriginalPrice: originalPrice,
			Permalink:     link,
			Thumbnail:     thumbnail,
		})
	})

	s.logger.WithFields(map[string]interface{}{
		"keyword": keyword,
		"results": len(products),
	}).Debug("Mercado Livre listing scrape completed")

	return products, nil
}

// parsePrice converts "1.234" (pt-BR thousands separator) to a float.
func parsePrice(text string) float64 {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, ".", "")
	text = strings.ReplaceAll(text, ",", ".")
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return value
}

// externalIDFromLink pulls the MLB item id out of a permalink, falling back
// to the full URL when no id is recognizable.
func externalIDFromLink(link string) string {
	trimmed := link
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	for _, segment := range strings.Split(trimmed, "/") {
		segment = strings.ReplaceAll(segment, "-", "")
		if strings.HasPrefix(segment, "MLB") && len(segment) > 3 {
			end := 3
			for end < len(segment) && segment[end] >= '0' && segment[end] <= '9' {
				end++
			}
			if end > 3 {
				return segment[:end]
			}
		}
	}
	return link
}
