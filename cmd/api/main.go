package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"serviceconnect_backend/internal/adapters"
	"serviceconnect_backend/internal/adapters/storage"
	"serviceconnect_backend/internal/announcements"
	"serviceconnect_backend/internal/chat"
	"serviceconnect_backend/internal/email"
	"serviceconnect_backend/internal/events"
	apphttp "serviceconnect_backend/internal/http"
	"serviceconnect_backend/internal/http/router"
	"serviceconnect_backend/internal/identity"
	"serviceconnect_backend/internal/jobs"
	"serviceconnect_backend/internal/notification"
	"serviceconnect_backend/internal/payments"
	"serviceconnect_backend/internal/proposals"
	"serviceconnect_backend/internal/providers"
	"serviceconnect_backend/internal/realtime"
	"serviceconnect_backend/internal/reviews"
	"serviceconnect_backend/internal/uploads"
	"serviceconnect_backend/platform/config"
	"serviceconnect_backend/platform/db"
	"serviceconnect_backend/platform/logger"
	"serviceconnect_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, store storage.Service, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.Migrate(cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	sender := email.NewSender(cfg)

	// Storage service for file uploads (MinIO), optional
	var storageSvc storage.Service
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		ensureBucket(ctx, log, minioSvc, "job-attachments", cfg.GetMinioBucketJobAttachments())
		ensureBucket(ctx, log, minioSvc, "portfolio", cfg.GetMinioBucketPortfolio())
		ensureBucket(ctx, log, minioSvc, "avatars", cfg.GetMinioBucketAvatars())
		storageSvc = minioSvc
		log.Info("storage service initialized",
			"jobAttachmentsBucket", cfg.GetMinioBucketJobAttachments(),
			"portfolioBucket", cfg.GetMinioBucketPortfolio(),
			"avatarsBucket", cfg.GetMinioBucketAvatars(),
		)
	} else {
		log.Warn("MINIO_ENDPOINT not configured; file uploads disabled")
	}

	// Redis client for cross-instance realtime fan-out, optional
	var redisClient *redis.Client
	if cfg.GetRedisURL() != "" {
		opt, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			log.Error("failed to parse redis url", "error", err)
			panic("failed to parse redis url: " + err.Error())
		}
		redisClient = redis.NewClient(opt)
		defer func() { _ = redisClient.Close() }()
	} else {
		log.Warn("REDIS_URL not configured; realtime events stay instance-local")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	identityModule := identity.NewModule(pool, cfg, eventBus, log, val)
	jobsModule := jobs.NewModule(pool, eventBus, log, val)
	providersModule := providers.NewModule(pool, eventBus, log, val)
	proposalsModule := proposals.NewModule(pool, eventBus, log, val)
	reviewsModule := reviews.NewModule(pool, eventBus, log, val)
	chatModule := chat.NewModule(pool, eventBus, log, val)
	announcementsModule := announcements.NewModule(pool, eventBus, log, val)
	paymentsModule := payments.NewModule(pool, eventBus, log, val)
	realtimeModule := realtime.NewModule(redisClient, log)
	uploadsModule := uploads.NewModule(storageSvc, cfg, val)

	// Cross-module ports. Each module depends only on its own interfaces;
	// the adapters bridge them here.
	providerDirectory := adapters.NewProviderDirectoryAdapter(providersModule.Service())
	jobReader := adapters.NewJobReadAdapter(jobsModule.Service())

	identityModule.Service().SetProviderBootstrapper(adapters.NewProviderBootstrapAdapter(providersModule.Service()))
	identityModule.Service().SetGuestJobAdopter(adapters.NewGuestJobAdoptAdapter(jobsModule.Service()))

	jobsModule.Service().SetProposalReader(adapters.NewProposalSummaryAdapter(proposalsModule.Service()))
	jobsModule.Service().SetProfileResolver(providerDirectory)

	proposalsModule.Service().SetJobGateway(jobReader)
	proposalsModule.Service().SetProviderGateway(providerDirectory)
	proposalsModule.Service().SetUserEmailResolver(adapters.NewUserEmailAdapter(identityModule.Service()))
	proposalsModule.Service().SetRoomEnsurer(adapters.NewChatRoomAdapter(chatModule.Service()))

	reviewsModule.Service().SetJobGateway(jobReader)
	reviewsModule.Service().SetProviderGateway(providerDirectory)
	reviewsModule.Service().SetRatingRecalculator(adapters.NewRatingRecalcAdapter(providersModule.Service()))

	providersModule.Service().SetReviewAggregateReader(adapters.NewReviewAggregateAdapter(reviewsModule.Service()))
	providersModule.Service().SetJobStatsReader(adapters.NewJobStatsAdapter(jobsModule.Service()))

	chatModule.Service().SetAudienceResolver(adapters.NewAudienceAdapter(identityModule.Service()))
	announcementsModule.Service().SetSystemMessenger(adapters.NewSystemBroadcastAdapter(chatModule.Service()))
	paymentsModule.Service().SetProviderGateway(providerDirectory)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.NewModule(sender, cfg, log,
		adapters.NewUserContactAdapter(identityModule.Service()), providerDirectory, jobReader)
	notificationModule.RegisterHandlers(eventBus)

	providersModule.RegisterHandlers(eventBus)
	realtimeModule.RegisterHandlers(eventBus)
	realtimeModule.Start(ctx)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		BanGuard: identityModule.BanGuard(),
		Modules: []apphttp.Module{
			identityModule,
			jobsModule,
			providersModule,
			proposalsModule,
			reviewsModule,
			chatModule,
			announcementsModule,
			paymentsModule,
			realtimeModule,
			uploadsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
