// Package openai is a minimal chat-completions client used for keyword
// expansion and caption generation.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"garimpeiro/pkg/config"
	"garimpeiro/pkg/httputil"
)

// Client calls the chat completions endpoint.
type Client struct {
	cfg    config.OpenAIConfig
	client *httputil.Client
}

// New creates a new OpenAI client
func New(cfg config.OpenAIConfig, client *httputil.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ChatJSON sends a prompt expecting a JSON-only reply and decodes it into dest.
func (c *Client) ChatJSON(ctx context.Context, system, prompt string, dest interface{}) error {
	if !c.Enabled() {
		return fmt.Errorf("openai not configured")
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   300,
	}

	req, err := newAuthorizedJSONRequest(ctx, c.cfg.BaseURL+"/chat/completions", c.cfg.APIKey, payload)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode chat response: %w", err)
	}
	if result.Error != nil {
		return fmt.Errorf("chat completion rejected: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return fmt.Errorf("chat completion returned no choices")
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)
	// Models occasionally fence the JSON despite instructions
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), dest); err != nil {
		return fmt.Errorf("chat reply is not the expected JSON: %w", err)
	}

	return nil
}

func newAuthorizedJSONRequest(ctx context.Context, targetURL, apiKey string, body interface{}) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	return req, nil
}
