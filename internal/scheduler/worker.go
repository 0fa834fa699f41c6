package scheduler

import (
	"context"
	"fmt"

	"homepro_backend/platform/config"
	"homepro_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// LeadSweeper and QuoteSweeper are the sweep entry points of the two lifecycle
// services.
type LeadSweeper interface {
	ExpireSweep(ctx context.Context) (int64, error)
}

type QuoteSweeper interface {
	ExpireSweep(ctx context.Context) (int64, error)
}

// Worker consumes sweep tasks from the asynq queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  LeadSweeper
	quotes QuoteSweeper
	log    *logger.Logger
}

// NewWorker creates a worker bound to the two sweepers.
func NewWorker(cfg config.SchedulerConfig, leads LeadSweeper, quotes QuoteSweeper, log *logger.Logger) (*Worker, error) {
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
		leads:  leads,
		quotes: quotes,
		log:    log,
	}

	mux.HandleFunc(TaskLeadExpireSweep, w.handleLeadExpireSweep)
	mux.HandleFunc(TaskQuoteExpireSweep, w.handleQuoteExpireSweep)

	return w, nil
}

func (w *Worker) handleLeadExpireSweep(ctx context.Context, _ *asynq.Task) error {
	count, err := w.leads.ExpireSweep(ctx)
	if err != nil {
		return fmt.Errorf("lead expire sweep: %w", err)
	}
	w.log.Info("lead expire sweep done", "count", count)
	return nil
}

func (w *Worker) handleQuoteExpireSweep(ctx context.Context, _ *asynq.Task) error {
	count, err := w.quotes.ExpireSweep(ctx)
	if err != nil {
		return fmt.Errorf("quote expire sweep: %w", err)
	}
	w.log.Info("quote expire sweep done", "count", count)
	return nil
}

// Run serves tasks until ctx is cancelled, then shuts the server down.
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
