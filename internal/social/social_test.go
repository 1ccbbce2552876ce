package social

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garimpeiro/internal/contracts"
	"garimpeiro/pkg/config"
	"garimpeiro/pkg/httputil"
	"garimpeiro/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}

func testProduct(id int64) contracts.Product {
	return contracts.Product{
		ID:            id,
		Marketplace:   "Mercado Livre",
		ExternalID:    "MLB123",
		Title:         "Batedeira planetária",
		ImageURL:      "https://example.com/img.jpg",
		URL:           "https://produto.mercadolivre.com.br/MLB-123",
		AffiliateLink: "https://example.com/aff",
		Niche:         "itens de cozinha",
		Rating:        4.6,
		Score:         32,
	}
}

type fakeLister struct {
	mu       sync.Mutex
	products []contracts.Product
	since    time.Time
	limit    int
	err      error
}

func (l *fakeLister) ListTopUpdatedSince(ctx context.Context, since time.Time, limit int) ([]contracts.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.since = since
	l.limit = limit
	if l.err != nil {
		return nil, l.err
	}
	if limit < len(l.products) {
		return l.products[:limit], nil
	}
	return l.products, nil
}

// graphServer records Graph API calls and answers every create with an id.
type graphServer struct {
	mu    sync.Mutex
	calls []string
}

func (g *graphServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.NotEmpty(t, r.Form.Get("access_token"))

		g.mu.Lock()
		g.calls = append(g.calls, r.URL.Path)
		g.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]string{"id": "obj-1"})
	}
}

func (g *graphServer) paths() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func socialConfig() config.SocialConfig {
	return config.SocialConfig{
		InstagramUserID: "ig-user",
		InstagramToken:  "ig-token",
		FacebookPageID:  "fb-page",
		FacebookToken:   "fb-token",
		PostsPerRun:     3,
	}
}

func newTestPoster(baseURL string, cfg config.SocialConfig) *Poster {
	p := NewPoster(cfg, httputil.New(testLogger()).DisableRetry(), testLogger())
	p.baseURL = baseURL
	return p
}

func TestCaptionWriter_FallbackWithoutClient(t *testing.T) {
	w := NewCaptionWriter(nil, testLogger())

	captions := w.Write(context.Background(), testProduct(1))

	assert.Contains(t, captions.Instagram, "Batedeira planetária")
	assert.Contains(t, captions.Instagram, "https://example.com/aff")
	assert.Contains(t, captions.Facebook, "Batedeira planetária")
	assert.Contains(t, captions.Facebook, "https://example.com/aff")
}

func TestCaptionWriter_FallbackUsesProductURLWhenNoAffiliateLink(t *testing.T) {
	w := NewCaptionWriter(nil, testLogger())

	p := testProduct(1)
	p.AffiliateLink = ""
	captions := w.Write(context.Background(), p)

	assert.Contains(t, captions.Facebook, p.URL)
}

func TestPoster_InstagramFeedFlow(t *testing.T) {
	g := &graphServer{}
	server := httptest.NewServer(g.handler(t))
	defer server.Close()

	p := newTestPoster(server.URL, socialConfig())

	require.NoError(t, p.PostInstagramFeed(context.Background(), "https://example.com/img.jpg", "caption"))

	// Container creation, then publish.
	assert.Equal(t, []string{"/ig-user/media", "/ig-user/media_publish"}, g.paths())
}

func TestPoster_FacebookStoryFlow(t *testing.T) {
	g := &graphServer{}
	server := httptest.NewServer(g.handler(t))
	defer server.Close()

	p := newTestPoster(server.URL, socialConfig())

	require.NoError(t, p.PostFacebookStory(context.Background(), "https://example.com/img.jpg"))

	// Unpublished photo upload, then story attach.
	assert.Equal(t, []string{"/fb-page/photos", "/fb-page/photo_stories"}, g.paths())
}

func TestPoster_GraphError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"message": "Invalid token", "code": 190},
		})
	}))
	defer server.Close()

	p := newTestPoster(server.URL, socialConfig())

	err := p.PostFacebookPhoto(context.Background(), "https://example.com/img.jpg", "msg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid token")
}

func TestFlowRun_PostsTopProducts(t *testing.T) {
	g := &graphServer{}
	server := httptest.NewServer(g.handler(t))
	defer server.Close()

	cfg := socialConfig()
	lister := &fakeLister{products: []contracts.Product{testProduct(1), testProduct(2)}}
	flow := NewFlow(lister, NewCaptionWriter(nil, testLogger()), newTestPoster(server.URL, cfg), cfg, testLogger())
	flow.now = func() time.Time { return time.Date(2026, 3, 14, 13, 0, 0, 0, time.UTC) }

	stats, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Candidates)
	assert.Equal(t, 2, stats.Posted)
	assert.Equal(t, 0, stats.Failed)

	// Only today's products are considered, capped at PostsPerRun.
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), lister.since)
	assert.Equal(t, 3, lister.limit)

	// Per product: IG feed (2 calls), IG story (2 calls), FB photo, FB story (2 calls).
	assert.Len(t, g.paths(), 14)
}

func TestFlowRun_SkipsProductsWithoutImage(t *testing.T) {
	g := &graphServer{}
	server := httptest.NewServer(g.handler(t))
	defer server.Close()

	cfg := socialConfig()
	noImage := testProduct(2)
	noImage.ImageURL = ""

	lister := &fakeLister{products: []contracts.Product{testProduct(1), noImage}}
	flow := NewFlow(lister, NewCaptionWriter(nil, testLogger()), newTestPoster(server.URL, cfg), cfg, testLogger())

	stats, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Candidates)
	assert.Equal(t, 1, stats.Posted)
	assert.Equal(t, 0, stats.Failed)
}

func TestFlowRun_SkipsWhenNoNetworkConfigured(t *testing.T) {
	lister := &fakeLister{products: []contracts.Product{testProduct(1)}}
	flow := NewFlow(lister, NewCaptionWriter(nil, testLogger()), NewPoster(config.SocialConfig{}, httputil.New(testLogger()), testLogger()), config.SocialConfig{}, testLogger())

	stats, err := flow.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Candidates)
	assert.Zero(t, lister.limit)
}
