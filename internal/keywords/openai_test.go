package keywords

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garimpeiro/internal/openai"
	"garimpeiro/pkg/config"
	"garimpeiro/pkg/httputil"
	"garimpeiro/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
}

func newExpander(baseURL string) *Expander {
	cfg := config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-3.5-turbo", BaseURL: baseURL}
	client := openai.New(cfg, httputil.New(testLogger()).DisableRetry())
	return NewExpander(client, testLogger())
}

func TestExpand(t *testing.T) {
	server := chatServer(t, `{"keywords": ["pincel de maquiagem", "paleta de sombras", "base líquida", "batom matte", "delineador"]}`)
	defer server.Close()

	keywords, err := newExpander(server.URL).Expand(context.Background(), "maquiagem artística")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"pincel de maquiagem", "paleta de sombras", "base líquida", "batom matte", "delineador",
	}, keywords)
}

func TestExpand_DropsDuplicatesAndTheme(t *testing.T) {
	server := chatServer(t, `{"keywords": ["maquiagem artística", "Pincel", "pincel", "", "paleta"]}`)
	defer server.Close()

	keywords, err := newExpander(server.URL).Expand(context.Background(), "maquiagem artística")
	require.NoError(t, err)

	// The theme itself, blanks and case-insensitive duplicates are removed.
	assert.Equal(t, []string{"Pincel", "paleta"}, keywords)
}

func TestExpand_HandlesFencedJSON(t *testing.T) {
	server := chatServer(t, "```json\n{\"keywords\": [\"pincel\"]}\n```")
	defer server.Close()

	keywords, err := newExpander(server.URL).Expand(context.Background(), "maquiagem")
	require.NoError(t, err)
	assert.Equal(t, []string{"pincel"}, keywords)
}

func TestExpand_ErrorsWhenNotConfigured(t *testing.T) {
	client := openai.New(config.OpenAIConfig{}, httputil.New(testLogger()))
	_, err := NewExpander(client, testLogger()).Expand(context.Background(), "maquiagem")
	assert.Error(t, err)

	_, err = NewExpander(nil, testLogger()).Expand(context.Background(), "maquiagem")
	assert.Error(t, err)
}

func TestExpand_ErrorsOnMalformedReply(t *testing.T) {
	server := chatServer(t, "desculpe, não posso ajudar")
	defer server.Close()

	_, err := newExpander(server.URL).Expand(context.Background(), "maquiagem")
	assert.Error(t, err)
}
