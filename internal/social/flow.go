package social

import (
	"context"
	"fmt"
	"time"

	"garimpeiro/internal/contracts"
	"garimpeiro/pkg/config"
	"garimpeiro/pkg/logger"
)

// ProductLister is the slice of the product store the flow needs.
type ProductLister interface {
	ListTopUpdatedSince(ctx context.Context, since time.Time, limit int) ([]contracts.Product, error)
}

// Flow selects today's top deals and posts each to the enabled networks,
// feed and story, pacing posts with a configurable delay.
type Flow struct {
	products ProductLister
	captions *CaptionWriter
	poster   *Poster
	cfg      config.SocialConfig
	logger   *logger.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewFlow creates a posting flow.
func NewFlow(products ProductLister, captions *CaptionWriter, poster *Poster, cfg config.SocialConfig, log *logger.Logger) *Flow {
	return &Flow{
		products: products,
		captions: captions,
		poster:   poster,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
	}
}

// FlowStats summarizes one posting run.
type FlowStats struct {
	Candidates int
	Posted     int
	Failed     int
}

// Run posts up to PostsPerRun of today's top-scored products. A product with
// no image is skipped; per-network failures are logged and do not stop the run.
func (f *Flow) Run(ctx context.Context) (FlowStats, error) {
	var stats FlowStats

	if !f.poster.InstagramEnabled() && !f.poster.FacebookEnabled() {
		f.logger.Info("Social posting skipped: no network configured")
		return stats, nil
	}

	since := f.now().Truncate(24 * time.Hour)
	products, err := f.products.ListTopUpdatedSince(ctx, since, f.cfg.PostsPerRun)
	if err != nil {
		return stats, fmt.Errorf("failed to list products to post: %w", err)
	}
	stats.Candidates = len(products)

	for i, product := range products {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if i > 0 && f.cfg.PostDelay > 0 {
			select {
			case <-time.After(f.cfg.PostDelay):
			case <-ctx.Done():
				return stats, ctx.Err()
			}
		}

		if product.ImageURL == "" {
			f.logger.WithField("product_id", product.ID).Debug("Skipping product without image")
			continue
		}

		if f.post(ctx, product) {
			stats.Posted++
		} else {
			stats.Failed++
		}
	}

	f.logger.WithFields(map[string]interface{}{
		"candidates": stats.Candidates,
		"posted":     stats.Posted,
		"failed":     stats.Failed,
	}).Info("Social posting run completed")

	return stats, nil
}

// post publishes one product to every enabled surface. Returns true when at
// least one publish succeeded.
func (f *Flow) post(ctx context.Context, product contracts.Product) bool {
	captions := f.captions.Write(ctx, product)
	posted := false

	if f.poster.InstagramEnabled() {
		if err := f.poster.PostInstagramFeed(ctx, product.ImageURL, captions.Instagram); err != nil {
			f.logger.WithError(err).WithField("product_id", product.ID).Error("Instagram feed post failed")
		} else {
			posted = true
		}
		if err := f.poster.PostInstagramStory(ctx, product.ImageURL); err != nil {
			f.logger.WithError(err).WithField("product_id", product.ID).Warn("Instagram story post failed")
		}
	}

	if f.poster.FacebookEnabled() {
		if err := f.poster.PostFacebookPhoto(ctx, product.ImageURL, captions.Facebook); err != nil {
			f.logger.WithError(err).WithField("product_id", product.ID).Error("Facebook photo post failed")
		} else {
			posted = true
		}
		if err := f.poster.PostFacebookStory(ctx, product.ImageURL); err != nil {
			f.logger.WithError(err).WithField("product_id", product.ID).Warn("Facebook story post failed")
		}
	}

	return posted
}
