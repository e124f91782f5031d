package service

import (
	"context"
	"time"

	"filechat-be/internal/config"
	"filechat-be/internal/pkg/logger"
	"filechat-be/internal/repository/contract"
	"filechat-be/pkg/events"
	natspkg "filechat-be/pkg/nats"
)

// ICleanupService expires chunks whose retention window has passed. Run
// schedules a daily sweep; SweepNow runs one immediately.
type ICleanupService interface {
	Run(ctx context.Context)
	SweepNow(ctx context.Context) (int64, error)
}

type cleanupService struct {
	chunkRepo      contract.ChunkRepository
	eventPublisher *natspkg.Publisher
	cfg            config.RetentionConfig
	logger         logger.ILogger
}

func NewCleanupService(
	chunkRepo contract.ChunkRepository,
	eventPublisher *natspkg.Publisher,
	cfg config.RetentionConfig,
	log logger.ILogger,
) ICleanupService {
	return &cleanupService{
		chunkRepo:      chunkRepo,
		eventPublisher: eventPublisher,
		cfg:            cfg,
		logger:         log,
	}
}

// Run blocks until ctx is cancelled, sweeping once every midnight UTC. A
// failed sweep is logged and retried at the next tick; it never stops the
// loop.
func (cs *cleanupService) Run(ctx context.Context) {
	for {
		wait := untilNextMidnightUTC(time.Now().UTC())
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		if _, err := cs.SweepNow(ctx); err != nil {
			cs.logger.Error("CleanupService", "Sweep failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

func (cs *cleanupService) SweepNow(ctx context.Context) (int64, error) {
	lifetime := time.Duration(cs.cfg.DocumentLifetimeMin) * time.Minute
	cutoff := time.Now().Add(-lifetime).UnixMilli()

	deleted, err := cs.chunkRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cs.logger.Info("CleanupService", "Sweep completed", map[string]interface{}{
		"deleted":       deleted,
		"cutoff_millis": cutoff,
	})

	if cs.eventPublisher != nil {
		if err := cs.eventPublisher.Publish(ctx, events.SweepCompleted(deleted, cutoff)); err != nil {
			cs.logger.Warn("CleanupService", "Failed to publish SWEEP_COMPLETED event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return deleted, nil
}

func untilNextMidnightUTC(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next.Sub(now)
}
