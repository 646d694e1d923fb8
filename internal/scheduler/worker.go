package scheduler

import (
	"context"
	"fmt"
	"time"

	"serviceconnect_backend/platform/config"
	"serviceconnect_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// ReviewSweeper deletes reviews whose job no longer exists and refreshes the
// affected provider ratings.
type ReviewSweeper interface {
	SweepOrphans(ctx context.Context) (int, error)
}

// SubscriptionExpirer downgrades provider services whose trial or paid
// period has lapsed.
type SubscriptionExpirer interface {
	ExpireTrials(ctx context.Context, now time.Time) (int64, error)
	ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger

	expirer SubscriptionExpirer
	reviews ReviewSweeper
}

func NewWorker(cfg config.SchedulerConfig, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		log:    log,
	}

	mux.HandleFunc(TaskReviewOrphanSweep, w.handleReviewOrphanSweep)
	mux.HandleFunc(TaskProviderTrialExpiry, w.handleProviderTrialExpiry)
	mux.HandleFunc(TaskProviderSubscriptionExpiry, w.handleProviderSubscriptionExpiry)

	return w, nil
}

// SetReviewSweeper injects the reviews service.
func (w *Worker) SetReviewSweeper(sweeper ReviewSweeper) {
	w.reviews = sweeper
}

// SetSubscriptionExpirer injects the providers service.
func (w *Worker) SetSubscriptionExpirer(expirer SubscriptionExpirer) {
	w.expirer = expirer
}

func (w *Worker) handleReviewOrphanSweep(ctx context.Context, task *asynq.Task) error {
	if w.reviews == nil {
		return nil
	}

	removed, err := w.reviews.SweepOrphans(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		w.log.Info("orphaned reviews swept", "count", removed)
	}
	return nil
}

func (w *Worker) handleProviderTrialExpiry(ctx context.Context, task *asynq.Task) error {
	if w.expirer == nil {
		return nil
	}

	expired, err := w.expirer.ExpireTrials(ctx, time.Now())
	if err != nil {
		return err
	}
	if expired > 0 {
		w.log.Info("provider trials expired", "count", expired)
	}
	return nil
}

func (w *Worker) handleProviderSubscriptionExpiry(ctx context.Context, task *asynq.Task) error {
	if w.expirer == nil {
		return nil
	}

	expired, err := w.expirer.ExpireSubscriptions(ctx, time.Now())
	if err != nil {
		return err
	}
	if expired > 0 {
		w.log.Info("provider subscriptions expired", "count", expired)
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
