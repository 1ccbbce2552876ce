package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"garimpeiro/pkg/config"
	"garimpeiro/pkg/httputil"
	"garimpeiro/pkg/logger"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v18.0"

// Poster publishes photo posts and stories through the Graph API. Instagram
// and Facebook are enabled independently based on which credentials are set.
type Poster struct {
	cfg     config.SocialConfig
	baseURL string
	client  *httputil.Client
	logger  *logger.Logger
}

// NewPoster creates a Graph API poster.
func NewPoster(cfg config.SocialConfig, client *httputil.Client, log *logger.Logger) *Poster {
	return &Poster{
		cfg:     cfg,
		baseURL: defaultGraphBaseURL,
		client:  client,
		logger:  log,
	}
}

// InstagramEnabled reports whether Instagram credentials are configured.
func (p *Poster) InstagramEnabled() bool {
	return p.cfg.InstagramUserID != "" && p.cfg.InstagramToken != ""
}

// FacebookEnabled reports whether Facebook credentials are configured.
func (p *Poster) FacebookEnabled() bool {
	return p.cfg.FacebookPageID != "" && p.cfg.FacebookToken != ""
}

// PostInstagramFeed publishes a photo with a caption to the Instagram feed.
// Two-step flow: create a media container, then publish it.
func (p *Poster) PostInstagramFeed(ctx context.Context, imageURL, caption string) error {
	form := url.Values{}
	form.Set("image_url", imageURL)
	form.Set("caption", caption)
	form.Set("access_token", p.cfg.InstagramToken)

	creationID, err := p.graphCall(ctx, fmt.Sprintf("/%s/media", p.cfg.InstagramUserID), form)
	if err != nil {
		return fmt.Errorf("failed to create instagram media: %w", err)
	}

	publish := url.Values{}
	publish.Set("creation_id", creationID)
	publish.Set("access_token", p.cfg.InstagramToken)

	if _, err := p.graphCall(ctx, fmt.Sprintf("/%s/media_publish", p.cfg.InstagramUserID), publish); err != nil {
		return fmt.Errorf("failed to publish instagram media: %w", err)
	}

	return nil
}

// PostInstagramStory publishes a photo as an Instagram story.
func (p *Poster) PostInstagramStory(ctx context.Context, imageURL string) error {
	form := url.Values{}
	form.Set("image_url", imageURL)
	form.Set("media_type", "STORIES")
	form.Set("access_token", p.cfg.InstagramToken)

	creationID, err := p.graphCall(ctx, fmt.Sprintf("/%s/media", p.cfg.InstagramUserID), form)
	if err != nil {
		return fmt.Errorf("failed to create instagram story: %w", err)
	}

	publish := url.Values{}
	publish.Set("creation_id", creationID)
	publish.Set("access_token", p.cfg.InstagramToken)

	if _, err := p.graphCall(ctx, fmt.Sprintf("/%s/media_publish", p.cfg.InstagramUserID), publish); err != nil {
		return fmt.Errorf("failed to publish instagram story: %w", err)
	}

	return nil
}

// PostFacebookPhoto publishes a photo with a message to the Facebook page.
func (p *Poster) PostFacebookPhoto(ctx context.Context, imageURL, message string) error {
	form := url.Values{}
	form.Set("url", imageURL)
	form.Set("message", message)
	form.Set("access_token", p.cfg.FacebookToken)

	if _, err := p.graphCall(ctx, fmt.Sprintf("/%s/photos", p.cfg.FacebookPageID), form); err != nil {
		return fmt.Errorf("failed to post facebook photo: %w", err)
	}

	return nil
}

// PostFacebookStory publishes a photo as a page story: the photo is uploaded
// unpublished, then attached to a story.
func (p *Poster) PostFacebookStory(ctx context.Context, imageURL string) error {
	upload := url.Values{}
	upload.Set("url", imageURL)
	upload.Set("published", "false")
	upload.Set("access_token", p.cfg.FacebookToken)

	photoID, err := p.graphCall(ctx, fmt.Sprintf("/%s/photos", p.cfg.FacebookPageID), upload)
	if err != nil {
		return fmt.Errorf("failed to upload facebook story photo: %w", err)
	}

	story := url.Values{}
	story.Set("photo_id", photoID)
	story.Set("access_token", p.cfg.FacebookToken)

	if _, err := p.graphCall(ctx, fmt.Sprintf("/%s/photo_stories", p.cfg.FacebookPageID), story); err != nil {
		return fmt.Errorf("failed to publish facebook story: %w", err)
	}

	return nil
}

// graphCall posts a form to one Graph API path and returns the created
// object's id.
func (p *Poster) graphCall(ctx context.Context, path string, form url.Values) (string, error) {
	resp, err := p.client.PostForm(ctx, p.baseURL+path, form)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read graph response: %w", err)
	}

	var payload struct {
		ID    string `json:"id"`
		Error *struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode graph response: %w", err)
	}
	if payload.Error != nil {
		return "", fmt.Errorf("graph call rejected (code %d): %s", payload.Error.Code, payload.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("graph call returned status %d", resp.StatusCode)
	}

	return payload.ID, nil
}
