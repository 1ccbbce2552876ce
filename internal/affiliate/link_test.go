package affiliate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"garimpeiro/pkg/config"
)

func TestLink(t *testing.T) {
	l := NewLinker(config.AffiliateConfig{
		BaseURL: "https://deals.example.com/go?url=",
		ID:      "garimpeiro-01",
	})

	got := l.Link("https://produto.mercadolivre.com.br/MLB-123?x=1&y=2")

	// The permalink must be escaped so its own query string survives.
	assert.Equal(t,
		"https://deals.example.com/go?url=https%3A%2F%2Fproduto.mercadolivre.com.br%2FMLB-123%3Fx%3D1%26y%3D2&aff_id=garimpeiro-01",
		got)
}

func TestLink_Defaults(t *testing.T) {
	l := NewLinker(config.AffiliateConfig{})

	got := l.Link("https://produto.mercadolivre.com.br/MLB-123")

	assert.Contains(t, got, DefaultBaseURL)
	assert.Contains(t, got, "aff_id=")
}
