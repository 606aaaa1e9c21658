package scheduler

import (
	"context"
	"time"

	"inmova_backend/platform/config"
	"inmova_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const scheduleTimezone = "Europe/Madrid"

// Sweeper runs one onboarding reminder sweep.
type Sweeper interface {
	Run(ctx context.Context) (SweepResult, error)
}

type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	sweep     Sweeper
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweep Sweeper, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	queue := queueName(cfg)

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

	location, err := time.LoadLocation(scheduleTimezone)
	if err != nil {
		log.Warn("timezone unavailable, scheduling in UTC", "timezone", scheduleTimezone, "error", err)
		location = time.UTC
	}
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: location})

	task, err := NewOnboardingSweepTask(OnboardingSweepPayload{Trigger: TriggerCron})
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(cfg.GetOnboardingSweepCron(), task, asynq.Queue(queue), asynq.Unique(sweepUniqueFor)); err != nil {
		return nil, err
	}

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		scheduler: scheduler,
		mux:       mux,
		sweep:     sweep,
		log:       log,
	}

	mux.HandleFunc(TaskOnboardingStalledSweep, w.handleOnboardingSweep)

	return w, nil
}

// Run starts the periodic scheduler and the task server, and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	if err := w.scheduler.Start(); err != nil {
		w.log.Error("periodic scheduler failed to start", "error", err)
		return
	}
	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		w.scheduler.Shutdown()
		return
	}

	<-ctx.Done()
	w.scheduler.Shutdown()
	w.server.Shutdown()
	w.log.Info("scheduler worker stopped")
}

func (w *Worker) handleOnboardingSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOnboardingSweepPayload(task)
	if err != nil {
		return err
	}

	result, err := w.sweep.Run(ctx)
	if err != nil {
		return err
	}

	w.log.Info("onboarding sweep finished",
		"trigger", payload.Trigger,
		"stalled", result.Stalled,
		"sent", result.Sent,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return nil
}
