package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shipbook/config"
	"shipbook/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker runs the periodic payment jobs on an asynq server fed by an asynq
// scheduler.
type Worker struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	stop      context.CancelFunc
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitPaymentWorker starts the sweep and reconcile jobs in background.
func InitPaymentWorker(jobs *PaymentJobs) *Worker {
	cfg := config.AppConfig
	opts := redisOpts()
	logger := jobs.logger().Named("payment_worker")

	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	srv := asynq.NewServer(
		opts,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSweepEvents, handleSweepTask(jobs))
	mux.HandleFunc(tasks.TypeReconcilePending, handleReconcileTask(jobs))

	scheduler := asynq.NewScheduler(opts, &asynq.SchedulerOpts{Location: time.UTC})
	if err := registerPeriodic(scheduler, cfg); err != nil {
		logger.Fatal("failed to register periodic tasks", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{srv: srv, scheduler: scheduler, stop: cancel}

	go monitorRedisConnection(ctx, logger)

	go func() {
		logger.Info("starting payment worker")
		if err := startWithRetry(logger, "worker", func() error { return srv.Start(mux) }); err != nil {
			logger.Fatal("payment worker did not start", zap.Error(err))
		}
		if err := startWithRetry(logger, "scheduler", scheduler.Start); err != nil {
			logger.Fatal("payment scheduler did not start", zap.Error(err))
		}
	}()

	return w
}

const maxStartAttempts = 5

var startBackoff = func(attempt int) time.Duration { return time.Duration(attempt*2) * time.Second }

// startWithRetry calls start until it succeeds or maxStartAttempts is spent.
func startWithRetry(logger *zap.Logger, name string, start func() error) error {
	var err error
	for attempt := 1; attempt <= maxStartAttempts; attempt++ {
		if err = start(); err == nil {
			return nil
		}
		logger.Error("start attempt failed",
			zap.String("component", name),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxStartAttempts),
			zap.Error(err))
		if attempt < maxStartAttempts {
			time.Sleep(startBackoff(attempt))
		}
	}
	return fmt.Errorf("start %s: %w", name, err)
}

// Shutdown stops scheduling and waits for in-flight jobs.
func (w *Worker) Shutdown() {
	w.stop()
	w.scheduler.Shutdown()
	w.srv.Shutdown()
}

func registerPeriodic(s *asynq.Scheduler, cfg config.Config) error {
	sweep, err := tasks.NewSweepTask(tasks.SweepPayload{
		GracePeriod: cfg.SweepGracePeriod,
		MaxAttempts: cfg.SweepMaxAttempts,
		Limit:       defaultBatchSize,
	})
	if err != nil {
		return err
	}
	if _, err := s.Register(everySpec(cfg.SweepInterval, 5*time.Minute), sweep); err != nil {
		return err
	}

	reconcile, err := tasks.NewReconcilePendingTask(tasks.ReconcilePayload{
		GracePeriod: cfg.SweepGracePeriod,
		Limit:       defaultBatchSize,
	})
	if err != nil {
		return err
	}
	_, err = s.Register(everySpec(cfg.ReconcileInterval, 15*time.Minute), reconcile)
	return err
}

func everySpec(interval, fallback time.Duration) string {
	if interval <= 0 {
		interval = fallback
	}
	return fmt.Sprintf("@every %s", interval)
}

func handleSweepTask(jobs *PaymentJobs) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.SweepPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			jobs.logger().Error("sweep: invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		report, err := jobs.SweepEvents(ctx, p)
		if err != nil {
			jobs.logger().Error("sweep: listing failed", zap.Error(err))
			return err
		}
		jobs.logger().Info("sweep: done",
			zap.Int("scanned", report.Scanned), zap.Int("processed", report.Succeeded), zap.Int("failed", report.Failed))
		return nil
	}
}

func handleReconcileTask(jobs *PaymentJobs) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.ReconcilePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			jobs.logger().Error("reconcile: invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		report, err := jobs.ReconcilePending(ctx, p)
		if err != nil {
			jobs.logger().Error("reconcile: listing failed", zap.Error(err))
			return err
		}
		jobs.logger().Info("reconcile: done",
			zap.Int("scanned", report.Scanned), zap.Int("synced", report.Succeeded), zap.Int("failed", report.Failed))
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
				logger.Warn("redis connection lost", zap.Error(err))
			}
		}
	}
}
