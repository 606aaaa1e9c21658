package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"inmova_backend/internal/audit"
	"inmova_backend/internal/email"
	"inmova_backend/internal/events"
	onboardingrepo "inmova_backend/internal/onboarding/repository"
	onboardingservice "inmova_backend/internal/onboarding/service"
	"inmova_backend/internal/scheduler"
	"inmova_backend/platform/cache"
	"inmova_backend/platform/config"
	"inmova_backend/platform/db"
	"inmova_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "sweepCron", cfg.GetOnboardingSweepCron())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	var redisClient *redis.Client
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		c, err := cache.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		redisClient = c
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = redisClient.Close() }()

	eventBus := events.NewInMemoryBus(log)
	audit.New(audit.NewRepository(pool), log).RegisterHandlers(eventBus)

	sender := email.NewSender(cfg)
	if !cfg.GetEmailEnabled() {
		log.Warn("email disabled; onboarding reminders will be recorded but not delivered")
	}

	onboardingSvc := onboardingservice.New(onboardingrepo.New(pool), nil, eventBus, log)
	sweep := scheduler.NewOnboardingSweep(onboardingSvc, sender, redisClient, eventBus, log, cfg.GetAppBaseURL())

	worker, err := scheduler.NewWorker(cfg, sweep, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	if getBoolEnv("ONBOARDING_SWEEP_ON_START") {
		enqueueSweep(ctx, cfg, log)
	}

	worker.Run(ctx)
	eventBus.Wait()
}

// enqueueSweep queues one immediate sweep next to the cron schedule.
func enqueueSweep(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) {
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return
	}
	defer func() { _ = client.Close() }()

	if err := client.EnqueueOnboardingSweep(ctx, scheduler.TriggerManual); err != nil {
		log.Warn("failed to enqueue startup sweep", "error", err)
		return
	}
	log.Info("startup onboarding sweep enqueued")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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

func getBoolEnv(key string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "true")
}
