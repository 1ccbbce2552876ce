package mercadolivre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"1.234", 1234},
		{"299", 299},
		{"1.299,90", 1299.90},
		{" 89 ", 89},
		{"", 0},
		{"abc", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parsePrice(tt.text), "parsePrice(%q)", tt.text)
	}
}

func TestExternalIDFromLink(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{
			"hyphenated product link",
			"https://produto.mercadolivre.com.br/MLB-1234567890-batedeira-planetaria-_JM",
			"MLB1234567890",
		},
		{
			"plain id segment",
			"https://www.mercadolivre.com.br/p/MLB987654",
			"MLB987654",
		},
		{
			"id before query string",
			"https://produto.mercadolivre.com.br/MLB-555-item-_JM?searchVariation=1#position=2",
			"MLB555",
		},
		{
			"no recognizable id falls back to the link",
			"https://www.mercadolivre.com.br/ofertas",
			"https://www.mercadolivre.com.br/ofertas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, externalIDFromLink(tt.link))
		})
	}
}
