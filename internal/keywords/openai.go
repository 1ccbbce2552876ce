// Package keywords expands a niche theme into related search keywords so a
// single configured niche covers more of the marketplace catalog.
package keywords

import (
	"context"
	"fmt"
	"strings"

	"garimpeiro/internal/openai"
	"garimpeiro/pkg/logger"
)

const expanderSystemPrompt = "You are a marketplace search assistant for Brazilian e-commerce. " +
	"Reply with JSON only, no prose."

// Expander implements contracts.KeywordExpander on top of the chat API.
type Expander struct {
	client *openai.Client
	logger *logger.Logger
}

// NewExpander creates a keyword expander. A nil or disabled client yields an
// expander whose Expand always errors, which callers treat as "no expansion".
func NewExpander(client *openai.Client, log *logger.Logger) *Expander {
	return &Expander{client: client, logger: log}
}

// Expand asks for five keywords related to the theme. The theme itself is not
// included in the result; callers merge it back in.
func (e *Expander) Expand(ctx context.Context, theme string) ([]string, error) {
	if e.client == nil || !e.client.Enabled() {
		return nil, fmt.Errorf("keyword expansion not configured")
	}

	prompt := fmt.Sprintf(
		`Generate 5 distinct Portuguese search keywords related to the product niche %q. `+
			`Return JSON in the form {"keywords": ["...", "...", "...", "...", "..."]}.`, theme)

	var reply struct {
		Keywords []string `json:"keywords"`
	}
	if err := e.client.ChatJSON(ctx, expanderSystemPrompt, prompt, &reply); err != nil {
		return nil, fmt.Errorf("failed to expand keywords: %w", err)
	}

	seen := map[string]bool{strings.ToLower(strings.TrimSpace(theme)): true}
	keywords := make([]string, 0, len(reply.Keywords))
	for _, kw := range reply.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[strings.ToLower(kw)] {
			continue
		}
		seen[strings.ToLower(kw)] = true
		keywords = append(keywords, kw)
	}

	e.logger.WithFields(map[string]interface{}{
		"theme":    theme,
		"keywords": len(keywords),
	}).Debug("Niche theme expanded")

	return keywords, nil
}
