package amazon

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedTestRequest(t *testing.T) *http.Request {
	t.Helper()

	body := []byte(`{"Keywords":"batedeira"}`)
	req, err := http.NewRequest(http.MethodPost, "https://webservices.amazon.com.br/paapi5/searchitems", bytes.NewReader(body))
	require.NoError(t, err)
	req.Host = "webservices.amazon.com.br"
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Amz-Target", "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems")
	req.Header.Set("Content-Encoding", "amz-1.0")

	now := time.Date(2026, 3, 14, 6, 30, 0, 0, time.UTC)
	signRequest(req, body, "AKIDEXAMPLE", "secret", "us-east-1", now)
	return req
}

func TestSignRequest_SetsDateAndAuthorization(t *testing.T) {
	req := signedTestRequest(t)

	assert.Equal(t, "20260314T063000Z", req.Header.Get("X-Amz-Date"))

	auth := req.Header.Get("Authorization")
	assert.Contains(t, auth, "AWS4-HMAC-SHA256 ")
	assert.Contains(t, auth, "Credential=AKIDEXAMPLE/20260314/us-east-1/ProductAdvertisingAPIv1/aws4_request")
	assert.Contains(t, auth, "SignedHeaders=content-encoding;content-type;host;x-amz-date;x-amz-target")
	assert.Regexp(t, `Signature=[0-9a-f]{64}$`, auth)
}

func TestSignRequest_IsDeterministic(t *testing.T) {
	first := signedTestRequest(t).Header.Get("Authorization")
	second := signedTestRequest(t).Header.Get("Authorization")
	assert.Equal(t, first, second)
}

func TestSignRequest_SignatureDependsOnInputs(t *testing.T) {
	base := signedTestRequest(t).Header.Get("Authorization")

	body := []byte(`{"Keywords":"outra coisa"}`)
	req, err := http.NewRequest(http.MethodPost, "https://webservices.amazon.com.br/paapi5/searchitems", bytes.NewReader(body))
	require.NoError(t, err)
	req.Host = "webservices.amazon.com.br"
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Amz-Target", "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems")
	req.Header.Set("Content-Encoding", "amz-1.0")
	signRequest(req, body, "AKIDEXAMPLE", "secret", "us-east-1", time.Date(2026, 3, 14, 6, 30, 0, 0, time.UTC))

	assert.NotEqual(t, base, req.Header.Get("Authorization"))
}

func TestCanonicalizeHeaders(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "https://webservices.amazon.com.br/paapi5/searchitems", nil)
	require.NoError(t, err)
	req.Host = "webservices.amazon.com.br"
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Amz-Date", "20260314T063000Z")

	signed, canonical := canonicalizeHeaders(req)

	assert.Equal(t, "content-type;host;x-amz-date", signed)
	assert.Equal(t,
		"content-type:application/json\nhost:webservices.amazon.com.br\nx-amz-date:20260314T063000Z\n",
		canonical)
}
