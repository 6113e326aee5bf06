package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/mityademon-rgb/matveypt-bot/internal/events"
	"github.com/mityademon-rgb/matveypt-bot/platform/config"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	bus    events.Publisher
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, bus events.Publisher, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
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
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskEscalationReminder, w.handleReminder)

	return w, nil
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		return err
	}
	w.log.Info("scheduler worker started")

	<-ctx.Done()
	w.server.Shutdown()
	w.log.Info("scheduler worker stopped")
	return nil
}

func (w *Worker) handleReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseReminderPayload(task)
	if err != nil {
		return fmt.Errorf("parse reminder payload: %w", asynq.SkipRetry)
	}
	if payload.ConversationID == "" || payload.ReminderID == "" {
		return nil
	}
	if w.bus == nil {
		return nil
	}

	return w.bus.PublishSync(ctx, events.ReminderDue{
		BaseEvent:      events.NewBaseEventAt(time.Now()),
		ConversationID: payload.ConversationID,
		ReminderID:     payload.ReminderID,
	})
}
