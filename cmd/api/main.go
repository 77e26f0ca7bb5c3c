package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach_backend/internal/campaigns"
	campaignservice "outreach_backend/internal/campaigns/service"
	"outreach_backend/internal/email"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/http/router"
	"outreach_backend/internal/leads"
	"outreach_backend/internal/scheduler"
	"outreach_backend/migrations"
	"outreach_backend/platform/ai/textgen"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
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

	sendScheduler, redisClient, closeScheduling := initScheduling(cfg, log)
	if closeScheduling != nil {
		defer closeScheduling()
	}

	sender := email.NewSender(cfg, log)

	var gen campaignservice.TextGenerator
	if cfg.IsTextGenEnabled() {
		gen = textgen.NewClient(textgen.Config{
			APIKey:            cfg.GetTextGenAPIKey(),
			BaseURL:           cfg.GetTextGenBaseURL(),
			Model:             cfg.GetTextGenModel(),
			Timeout:           cfg.GetTextGenTimeout(),
			RequestsPerSecond: cfg.GetTextGenRequestsPerSecond(),
		})
		log.Info("text generation enabled", "model", cfg.GetTextGenModel())
	} else {
		log.Warn("TEXTGEN_API_KEY not configured; campaign generation disabled")
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, eventBus, val, log)

	campaignsModule := campaigns.NewModule(campaigns.Deps{
		Pool:      pool,
		Leads:     leadsModule.Service(),
		Gen:       gen,
		Redis:     redisClient,
		Scheduler: sendScheduler,
		Sender:    sender,
		EventBus:  eventBus,
		Validator: val,
		Logger:    log,
		Config:    cfg,
	})

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			campaignsModule,
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
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initScheduling wires the asynq send scheduler and a shared redis client for
// the generation quota. Both are optional; without REDIS_URL campaigns still
// work, minus scheduled sends and quota enforcement.
func initScheduling(cfg *config.Config, log *logger.Logger) (campaignservice.SendScheduler, redis.UniversalClient, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; email scheduling and quota disabled")
		return nil, nil, nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		return nil, nil, nil
	}
	redisClient := redis.NewClient(opt)

	sendClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize send scheduler client", "error", err)
		return nil, redisClient, func() { _ = redisClient.Close() }
	}

	return sendClient, redisClient, func() {
		_ = sendClient.Close()
		_ = redisClient.Close()
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
