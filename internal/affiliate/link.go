// Package affiliate builds tracking-parameterized links from product URLs.
package affiliate

import (
	"fmt"
	"net/url"

	"garimpeiro/pkg/config"
)

// DefaultBaseURL is used when no affiliate base URL is configured.
const DefaultBaseURL = "https://www.mercadolivre.com.br/oferta?url="

// Linker derives affiliate links from canonical product URLs. Pure and total:
// missing configuration produces a degraded but well-formed link.
type Linker struct {
	baseURL     string
	affiliateID string
}

// NewLinker creates a linker from config, falling back to defaults.
func NewLinker(cfg config.AffiliateConfig) *Linker {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Linker{
		baseURL:     base,
		affiliateID: cfg.ID,
	}
}

// Link builds the affiliate link for a product permalink.
func (l *Linker) Link(permalink string) string {
	return fmt.Sprintf("%s%s&aff_id=%s", l.baseURL, url.QueryEscape(permalink), l.affiliateID)
}
