package jobs

import (
	"context"
	"fmt"

	"garimpeiro/internal/social"
	"garimpeiro/pkg/config"
	"garimpeiro/pkg/logger"
)

// SocialJob posts the day's top deals to the configured networks.
type SocialJob struct {
	flow     *social.Flow
	schedule string
	logger   *logger.Logger
}

// NewSocialJob creates a new social posting job
func NewSocialJob(flow *social.Flow, cfg config.SocialConfig, log *logger.Logger) *SocialJob {
	return &SocialJob{
		flow:     flow,
		schedule: cfg.Schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *SocialJob) Name() string {
	return "social_posting"
}

// Schedule returns the cron schedule expression
func (j *SocialJob) Schedule() string {
	return j.schedule
}

// Run executes one posting run
func (j *SocialJob) Run(ctx context.Context) error {
	stats, err := j.flow.Run(ctx)
	if err != nil {
		return fmt.Errorf("social posting run failed: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"candidates": stats.Candidates,
		"posted":     stats.Posted,
		"failed":     stats.Failed,
	}).Info("Scheduled social posting completed")

	return nil
}
