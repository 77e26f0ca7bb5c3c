package scheduler

import (
	"context"
	"fmt"

	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// EmailSender is the campaign-side send entry point the worker drives.
type EmailSender interface {
	SendScheduledEmail(ctx context.Context, emailID uuid.UUID) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sender EmailSender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sender EmailSender, log *logger.Logger) (*Worker, error) {
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
		sender: sender,
		log:    log,
	}

	mux.HandleFunc(TaskCampaignEmailSend, w.handleCampaignEmailSend)

	return w, nil
}

func (w *Worker) handleCampaignEmailSend(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCampaignEmailSendPayload(task)
	if err != nil {
		return err
	}

	emailID, err := uuid.Parse(payload.EmailID)
	if err != nil {
		return err
	}

	// Send failures are recorded on the email row, not surfaced to asynq;
	// a returned error would retry a row already marked failed.
	return w.sender.SendScheduledEmail(ctx, emailID)
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
