package mercadolivre

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garimpeiro/pkg/config"
	"garimpeiro/pkg/httputil"
	"garimpeiro/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}

func searchPayload() map[string]interface{} {
	return map[string]interface{}{
		"results": []map[string]interface{}{
			{
				"id":             "MLB123",
				"title":          "Batedeira planetária",
				"price":          299.90,
				"original_price": 399.90,
				"permalink":      "https://produto.mercadolivre.com.br/MLB-123",
				"thumbnail":      "https://http2.mlstatic.com/MLB123.jpg",
				"sold_quantity":  532,
				"rating_average": 4.6,
			},
			{
				"id":    "MLB456",
				"title": "Item sem promoção",
				"price": 50.0,
			},
		},
	}
}

func TestSearch_MapsAPIResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/MLB/search", r.URL.Path)
		assert.Equal(t, "batedeira", r.URL.Query().Get("q"))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(searchPayload())
	}))
	defer server.Close()

	cfg := config.MercadoLivreConfig{
		BaseURL:     server.URL,
		SiteID:      "MLB",
		AccessToken: "token-1",
	}
	adapter := New(cfg, 50, httputil.New(testLogger()).DisableRetry(), testLogger())

	products, err := adapter.Search(context.Background(), "batedeira")
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "MLB123", products[0].ExternalID)
	assert.Equal(t, "Batedeira planetária", products[0].Title)
	assert.Equal(t, 299.90, products[0].Price)
	assert.Equal(t, 399.90, products[0].OriginalPrice)
	assert.Equal(t, 532, products[0].SoldQuantity)
	assert.Equal(t, 4.6, products[0].Rating)

	// Absent optional fields come through as zero values.
	assert.Zero(t, products[1].OriginalPrice)
	assert.Zero(t, products[1].Rating)
}

func TestSearch_RefreshesTokenOnceOnAuthFailure(t *testing.T) {
	var searchCalls, refreshCalls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sites/MLB/search":
			searchCalls++
			if r.Header.Get("Authorization") != "Bearer fresh-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(searchPayload())
		case "/oauth/token":
			refreshCalls++
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
			assert.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token":  "fresh-token",
				"refresh_token": "fresh-refresh",
				"expires_in":    21600,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	cfg := config.MercadoLivreConfig{
		BaseURL:      server.URL,
		SiteID:       "MLB",
		ClientID:     "client",
		ClientSecret: "secret",
		AccessToken:  "stale-token",
		RefreshToken: "old-refresh",
	}
	adapter := New(cfg, 50, httputil.New(testLogger()).DisableRetry(), testLogger())

	products, err := adapter.Search(context.Background(), "batedeira")
	require.NoError(t, err)
	assert.Len(t, products, 2)

	assert.Equal(t, 2, searchCalls)
	assert.Equal(t, 1, refreshCalls)
	assert.Equal(t, "fresh-token", adapter.tokens.Token())
}

func TestSearch_FailsWhenRefreshImpossible(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	// Access token but no refresh credentials: one failed attempt, no loop.
	cfg := config.MercadoLivreConfig{
		BaseURL:     server.URL,
		SiteID:      "MLB",
		AccessToken: "stale-token",
	}
	adapter := New(cfg, 50, httputil.New(testLogger()).DisableRetry(), testLogger())

	_, err := adapter.Search(context.Background(), "batedeira")
	assert.Error(t, err)
}
