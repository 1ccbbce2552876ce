// Package jobs holds the concrete scheduled jobs.
package jobs

import (
	"context"
	"fmt"

	"garimpeiro/internal/pipeline"
	"garimpeiro/pkg/config"
	"garimpeiro/pkg/logger"
)

// MiningJob runs the full daily mining pipeline across all niches.
type MiningJob struct {
	miner    *pipeline.Miner
	schedule string
	logger   *logger.Logger
}

// NewMiningJob creates a new mining job
func NewMiningJob(miner *pipeline.Miner, cfg config.MiningConfig, log *logger.Logger) *MiningJob {
	return &MiningJob{
		miner:    miner,
		schedule: cfg.Schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *MiningJob) Name() string {
	return "mining"
}

// Schedule returns the cron schedule expression
func (j *MiningJob) Schedule() string {
	return j.schedule
}

// Run executes one mining run
func (j *MiningJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled mining run")

	stats := j.miner.Run(ctx)
	if ctx.Err() != nil {
		return fmt.Errorf("mining run interrupted: %w", ctx.Err())
	}

	j.logger.WithFields(map[string]interface{}{
		"niches":        stats.Niches,
		"empty_niches":  stats.EmptyNiches,
		"ingested":      stats.Ingested,
		"skipped":       stats.Skipped,
		"export_errors": stats.ExportErrors,
		"duration":      stats.Duration,
	}).Info("Scheduled mining run completed")

	return nil
}
