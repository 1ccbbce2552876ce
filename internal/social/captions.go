// Package social posts top mined deals to Instagram and Facebook through the
// Graph API, with generated captions per network.
package social

import (
	"context"
	"fmt"

	"garimpeiro/internal/contracts"
	"garimpeiro/internal/openai"
	"garimpeiro/pkg/logger"
)

// Captions holds one caption per target network.
type Captions struct {
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
}

const captionSystemPrompt = "You write short promotional captions in Brazilian Portuguese " +
	"for social media deal posts. Reply with JSON only, no prose."

// CaptionWriter generates per-network captions for a product, falling back to
// a template when the chat API is unavailable.
type CaptionWriter struct {
	client *openai.Client
	logger *logger.Logger
}

// NewCaptionWriter creates a caption writer. The client may be nil.
func NewCaptionWriter(client *openai.Client, log *logger.Logger) *CaptionWriter {
	return &CaptionWriter{client: client, logger: log}
}

// Write returns captions for the product. Errors from the chat API degrade to
// the fallback template; Write itself never fails.
func (w *CaptionWriter) Write(ctx context.Context, p contracts.Product) Captions {
	if w.client == nil || !w.client.Enabled() {
		return w.fallback(p)
	}

	prompt := fmt.Sprintf(
		`Write two captions for this deal: product %q, niche %q, rating %s. `+
			`The Instagram caption should be energetic with emojis and hashtags; `+
			`the Facebook caption slightly longer and more descriptive. `+
			`Do not include any link. `+
			`Return JSON in the form {"instagram": "...", "facebook": "..."}.`,
		p.Title, p.Niche, contracts.FormatRating(p.Rating))

	var captions Captions
	if err := w.client.ChatJSON(ctx, captionSystemPrompt, prompt, &captions); err != nil {
		w.logger.WithError(err).WithField("product_id", p.ID).
			Warn("Caption generation failed, using fallback")
		return w.fallback(p)
	}
	if captions.Instagram == "" || captions.Facebook == "" {
		return w.fallback(p)
	}

	captions.Instagram = appendLink(captions.Instagram, p)
	captions.Facebook = appendLink(captions.Facebook, p)
	return captions
}

func (w *CaptionWriter) fallback(p contracts.Product) Captions {
	base := fmt.Sprintf("🔥 Oferta do dia: %s", p.Title)
	return Captions{
		Instagram: appendLink(base+" 🛒 #oferta #promoção", p),
		Facebook:  appendLink(base, p),
	}
}

func appendLink(caption string, p contracts.Product) string {
	link := p.AffiliateLink
	if link == "" {
		link = p.URL
	}
	if link == "" {
		return caption
	}
	return caption + "\n\n" + link
}
