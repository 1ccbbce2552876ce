package amazon

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// AWS Signature Version 4 for the Product Advertising API. The corpus carries
// no AWS SDK, and PA-API only needs the plain HMAC-SHA256 signing chain, so it
// is implemented here directly.
const (
	signingService   = "ProductAdvertisingAPIv1"
	signingAlgorithm = "AWS4-HMAC-SHA256"
	amzDateLayout    = "20060102T150405Z"
	dateStampLayout  = "20060102"
)

// signRequest adds the X-Amz-Date and Authorization headers to req.
// The body must match what will be sent.
func signRequest(req *http.Request, body []byte, accessKey, secretKey, region string, now time.Time) {
	amzDate := now.UTC().Format(amzDateLayout)
	dateStamp := now.UTC().Format(dateStampLayout)

	req.Header.Set("X-Amz-Date", amzDate)

	signedHeaders, canonicalHeaders := canonicalizeHeaders(req)

	payloadHash := sha256Hex(body)
	canonicalRequest := strings.Join([]string{
		req.Method,
		req.URL.EscapedPath(),
		req.URL.RawQuery,
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, region, signingService)
	stringToSign := strings.Join([]string{
		signingAlgorithm,
		amzDate,
		credentialScope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	signingKey := deriveSigningKey(secretKey, dateStamp, region)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	authorization := fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		signingAlgorithm, accessKey, credentialScope, signedHeaders, signature)
	req.Header.Set("Authorization", authorization)
}

// canonicalizeHeaders returns the signed header list and the canonical header
// block for the headers PA-API expects to be signed.
func canonicalizeHeaders(req *http.Request) (string, string) {
	headers := map[string]string{
		"host": req.Host,
	}
	for _, name := range []string{"Content-Type", "X-Amz-Date", "X-Amz-Target", "Content-Encoding"} {
		if value := req.Header.Get(name); value != "" {
			headers[strings.ToLower(name)] = value
		}
	}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var canonical strings.Builder
	for _, name := range names {
		canonical.WriteString(name)
		canonical.WriteString(":")
		canonical.WriteString(strings.TrimSpace(headers[name]))
		canonical.WriteString("\n")
	}

	return strings.Join(names, ";"), canonical.String()
}

func deriveSigningKey(secretKey, dateStamp, region string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, signingService)
	return hmacSHA256(kService, "aws4_request")
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
