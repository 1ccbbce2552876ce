package mercadolivre

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sync"

	"garimpeiro/pkg/config"
	"garimpeiro/pkg/httputil"
	"garimpeiro/pkg/logger"
)

// TokenSource owns the Mercado Livre OAuth access/refresh token pair.
// Callers ask for the current token and report auth failures; the source
// refreshes and rotates the pair internally.
type TokenSource struct {
	mu           sync.Mutex
	accessToken  string
	refreshToken string

	clientID     string
	clientSecret string
	baseURL      string

	client *httputil.Client
	logger *logger.Logger
}

// NewTokenSource creates a token source from config. Returns nil when no
// credentials are configured; the adapter then works unauthenticated.
func NewTokenSource(cfg config.MercadoLivreConfig, client *httputil.Client, log *logger.Logger) *TokenSource {
	if cfg.AccessToken == "" && cfg.RefreshToken == "" {
		return nil
	}
	return &TokenSource{
		accessToken:  cfg.AccessToken,
		refreshToken: cfg.RefreshToken,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		baseURL:      cfg.BaseURL,
		client:       client,
		logger:       log,
	}
}

// Token returns the current access token.
func (t *TokenSource) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accessToken
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Refresh exchanges the refresh token for a new pair. The new pair replaces
// the old one only on success.
func (t *TokenSource) Refresh(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.refreshToken == "" || t.clientID == "" || t.clientSecret == "" {
		return fmt.Errorf("refresh not possible: missing refresh credentials")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", t.clientID)
	form.Set("client_secret", t.clientSecret)
	form.Set("refresh_token", t.refreshToken)

	resp, err := t.client.PostForm(ctx, t.baseURL+"/oauth/token", form)
	if err != nil {
		return fmt.Errorf("token refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("token refresh rejected with status %d: %s", resp.StatusCode, body)
	}

	var tokens tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return fmt.Errorf("token response missing access_token")
	}

	t.accessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		t.refreshToken = tokens.RefreshToken
	}

	t.logger.Info("Mercado Livre token refreshed")
	return nil
}
