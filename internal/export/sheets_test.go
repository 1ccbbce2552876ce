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
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
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

func testPrivateKeyPEM(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	return string(pem.EncodeToMemory(block)), key
}

func TestNewSheetsExporter_DisabledWithoutConfig(t *testing.T) {
	exporter, err := NewSheetsExporter(config.SheetsConfig{}, httputil.New(testLogger()), testLogger())
	require.NoError(t, err)

	// Disabled exporter silently drops batches.
	err = exporter.Export(context.Background(), "niche", []contracts.ExportRow{{Title: "x"}})
	assert.NoError(t, err)
}

func TestNewSheetsExporter_RejectsMalformedKey(t *testing.T) {
	cfg := config.SheetsConfig{
		SpreadsheetID:       "sheet-1",
		ServiceAccountEmail: "svc@project.iam.gserviceaccount.com",
		PrivateKey:          "not a pem",
	}
	_, err := NewSheetsExporter(cfg, httputil.New(testLogger()), testLogger())
	assert.Error(t, err)
}

func TestExport_AppendsRows(t *testing.T) {
	var gotPath string
	var gotBody appendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		assert.Equal(t, "Bearer cached-token", r.Header.Get("Authorization"))
		assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{"updates": map[string]int{"updatedRows": 2}})
	}))
	defer server.Close()

	pemKey, _ := testPrivateKeyPEM(t)
	tokens, err := newTokenSource("svc@project.iam.gserviceaccount.com", pemKey, httputil.New(testLogger()))
	require.NoError(t, err)
	tokens.token = "cached-token"
	tokens.expires = time.Now().Add(time.Hour)

	exporter := &SheetsExporter{
		spreadsheetID: "sheet-1",
		baseURL:       server.URL,
		tokens:        tokens,
		client:        httputil.New(testLogger()).DisableRetry(),
		logger:        testLogger(),
	}

	rows := []contracts.ExportRow{
		{CollectionDate: "2026-03-14", Niche: "itens de cozinha", Title: "a", DiscountPct: "20.00", Rating: "4.5"},
		{CollectionDate: "2026-03-14", Niche: "itens de cozinha", Title: "b", DiscountPct: "0", Rating: "N/A"},
	}

	err = exporter.Export(context.Background(), "itens de cozinha", rows)
	require.NoError(t, err)

	assert.Contains(t, gotPath, "/sheet-1/values/")
	assert.Contains(t, gotPath, ":append")
	require.Len(t, gotBody.Values, 2)
	assert.Len(t, gotBody.Values[0], 9)
	assert.Equal(t, "a", gotBody.Values[0][2])
	assert.Equal(t, "N/A", gotBody.Values[1][8])
}

func TestExport_EmptyBatchIsNoop(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	exporter := &SheetsExporter{
		spreadsheetID: "sheet-1",
		baseURL:       server.URL,
		client:        httputil.New(testLogger()),
		logger:        testLogger(),
	}

	require.NoError(t, exporter.Export(context.Background(), "niche", nil))
	assert.False(t, called)
}

func TestSignedAssertion(t *testing.T) {
	pemKey, key := testPrivateKeyPEM(t)
	tokens, err := newTokenSource("svc@project.iam.gserviceaccount.com", pemKey, httputil.New(testLogger()))
	require.NoError(t, err)
	tokens.now = func() time.Time { return time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC) }

	assertion, err := tokens.signedAssertion()
	require.NoError(t, err)

	parts := strings.Split(assertion, ".")
	require.Len(t, parts, 3)

	// Signature verifies against the key's public half.
	digest := sha256.Sum256([]byte(parts[0] + "." + parts[1]))
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	require.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], signature))

	claimsJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, json.Unmarshal(claimsJSON, &claims))
	assert.Equal(t, "svc@project.iam.gserviceaccount.com", claims["iss"])
	assert.Equal(t, sheetsScope, claims["scope"])
	assert.Equal(t, googleTokenURL, claims["aud"])
	assert.Equal(t, claims["iat"].(float64)+3600, claims["exp"].(float64))
}
