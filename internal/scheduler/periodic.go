package scheduler

import (
	"fmt"

	"serviceconnect_backend/platform/config"
	"serviceconnect_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const (
	specReviewOrphanSweep  = "@every 1h"
	specTrialExpiry        = "@every 10m"
	specSubscriptionExpiry = "@every 10m"
)

// NewPeriodicScheduler enqueues the recurring maintenance tasks. It runs
// alongside the worker in the scheduler binary.
func NewPeriodicScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*asynq.Scheduler, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})

	entries := []struct {
		spec string
		task *asynq.Task
	}{
		{specReviewOrphanSweep, NewReviewOrphanSweepTask()},
		{specTrialExpiry, NewProviderTrialExpiryTask()},
		{specSubscriptionExpiry, NewProviderSubscriptionExpiryTask()},
	}

	for _, entry := range entries {
		if _, err := scheduler.Register(entry.spec, entry.task, asynq.Queue(queue)); err != nil {
			return nil, fmt.Errorf("register periodic task %s: %w", entry.task.Type(), err)
		}
	}

	log.Info("periodic tasks registered", "count", len(entries))
	return scheduler, nil
}
