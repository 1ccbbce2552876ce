package export

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/url"
	"sync"
	"time"

	"garimpeiro/pkg/httputil"
)

// Google service-account authentication: a short-lived RS256 JWT exchanged
// for an access token. The corpus carries no JWT or Google SDK dependency and
// the exchange is a single signed claim set, so it is implemented here with
// the standard crypto packages.
const (
	googleTokenURL = "https://oauth2.googleapis.com/token"
	sheetsScope    = "https://www.googleapis.com/auth/spreadsheets"
	jwtGrantType   = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// tokenSource mints and caches service-account access tokens.
type tokenSource struct {
	mu      sync.Mutex
	email   string
	key     *rsa.PrivateKey
	client  *httputil.Client
	token   string
	expires time.Time

	// now is swappable for tests
	now func() time.Time
}

// newTokenSource parses the PEM private key and builds a token source.
func newTokenSource(email, privateKeyPEM string, client *httputil.Client) (*tokenSource, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("failed to decode service account private key PEM")
	}

	var key *rsa.PrivateKey
	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("service account key is not RSA")
		}
		key = rsaKey
	} else if parsed, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		key = parsed
	} else {
		return nil, fmt.Errorf("failed to parse service account private key: %w", err)
	}

	return &tokenSource{
		email:  email,
		key:    key,
		client: client,
		now:    time.Now,
	}, nil
}

// AccessToken returns a valid token, minting a new one when the cached token
// is within a minute of expiry.
func (t *tokenSource) AccessToken(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.now().Before(t.expires.Add(-time.Minute)) {
		return t.token, nil
	}

	assertion, err := t.signedAssertion()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", jwtGrantType)
	form.Set("assertion", assertion)

	resp, err := t.client.PostForm(ctx, googleTokenURL, form)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("token exchange returned status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	t.token = payload.AccessToken
	t.expires = t.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return t.token, nil
}

// signedAssertion builds the RS256 JWT for the token exchange.
func (t *tokenSource) signedAssertion() (string, error) {
	now := t.now()

	header := map[string]string{"alg": "RS256", "typ": "JWT"}
	claims := map[string]interface{}{
		"iss":   t.email,
		"scope": sheetsScope,
		"aud":   googleTokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) +
		"." + base64.RawURLEncoding.EncodeToString(claimsJSON)

	digest := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(rand.Reader, t.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}
