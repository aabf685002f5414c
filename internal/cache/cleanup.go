package cache

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CleanupJob periodically deletes expired cache rows so the cache database
// does not grow without bound. Reads already filter on expires_at; this only
// reclaims space.
type CleanupJob struct {
	store Store
	log   *zap.Logger
	cron  *cron.Cron
}

func NewCleanupJob(store Store, log *zap.Logger) *CleanupJob {
	return &CleanupJob{
		store: store,
		log:   log.Named("cache_cleanup"),
		cron:  cron.New(),
	}
}

// Start schedules the cleanup on the given cron expression (e.g. "@daily").
func (j *CleanupJob) Start(schedule string) error {
	_, err := j.cron.AddFunc(schedule, j.runOnce)
	if err != nil {
		return fmt.Errorf("failed to schedule cache cleanup: %w", err)
	}
	j.cron.Start()
	j.log.Info("cache cleanup scheduled", zap.String("schedule", schedule))
	return nil
}

// Stop halts the schedule and waits for a running cleanup to finish.
func (j *CleanupJob) Stop() {
	<-j.cron.Stop().Done()
}

func (j *CleanupJob) runOnce() {
	deleted, err := j.store.DeleteExpired(context.Background())
	if err != nil {
		j.log.Error("failed to delete expired cache entries", zap.Error(err))
		return
	}
	if deleted > 0 {
		j.log.Info("deleted expired cache entries", zap.Int64("deleted", deleted))
	}
}
