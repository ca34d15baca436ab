// Package worker consumes queued scan tasks and drives them through
// discovery, reconciliation, and insight generation.
package worker

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/presence-scanner/internal/insights"
	"github.com/sells-group/presence-scanner/internal/metrics"
	"github.com/sells-group/presence-scanner/internal/model"
	"github.com/sells-group/presence-scanner/internal/platform"
	"github.com/sells-group/presence-scanner/internal/queue"
	"github.com/sells-group/presence-scanner/internal/reconcile"
	"github.com/sells-group/presence-scanner/internal/scan"
	"github.com/sells-group/presence-scanner/internal/store"
	"github.com/sells-group/presence-scanner/internal/webhook"
)

const defaultPollTimeout = 5 * time.Second

// Runner is a single-goroutine scan worker. It block-pops tasks from the
// queue, runs the discovery orchestrator, reconciles the harvest against the
// user's input, and records the result in the queue and the store.
type Runner struct {
	queue       *queue.Queue
	store       store.Store
	orch        *scan.Orchestrator
	registry    *platform.Registry
	deliverer   *webhook.Deliverer
	pollTimeout time.Duration
}

// Config wires a Runner. Store and Deliverer may be nil; persistence and
// webhook delivery are then skipped.
type Config struct {
	Queue        *queue.Queue
	Store        store.Store
	Orchestrator *scan.Orchestrator
	Registry     *platform.Registry
	Deliverer    *webhook.Deliverer
	PollTimeout  time.Duration
}

// New creates a Runner.
func New(cfg Config) *Runner {
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	reg := cfg.Registry
	if reg == nil {
		reg = platform.DefaultRegistry()
	}
	return &Runner{
		queue:       cfg.Queue,
		store:       cfg.Store,
		orch:        cfg.Orchestrator,
		registry:    reg,
		deliverer:   cfg.Deliverer,
		pollTimeout: pollTimeout,
	}
}

// Run consumes tasks until ctx is canceled. Dequeue faults back off briefly
// rather than spinning.
func (r *Runner) Run(ctx context.Context) error {
	log := zap.L()
	log.Info("worker started", zap.Duration("poll_timeout", r.pollTimeout))

	for {
		if ctx.Err() != nil {
			log.Info("worker stopping")
			return nil
		}

		task, err := r.queue.Dequeue(ctx, r.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping")
				return nil
			}
			log.Error("worker: dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if task == nil {
			continue
		}

		r.Process(ctx, task)
	}
}

// Process runs one task end to end. A canceled context aborts the task and
// discards any partial harvest; every other fault still yields a result,
// possibly with gaps.
func (r *Runner) Process(ctx context.Context, task *queue.Task) {
	log := zap.L().With(
		zap.String("scan_id", task.ID),
		zap.String("business", task.Business.Name),
	)
	log.Info("scan started")

	metrics.ScansStarted.Inc()
	started := time.Now()

	if r.store != nil {
		if _, err := r.store.CreateScan(ctx, task.ID, task.Business); err != nil {
			log.Warn("worker: create scan record", zap.Error(err))
		}
	}
	if err := r.queue.MarkActive(ctx, task.ID); err != nil {
		log.Warn("worker: mark active", zap.Error(err))
	}

	harvested, err := r.orch.Run(ctx, task.Business)
	if err != nil {
		// Cancellation mid-run leaves the harvest incomplete in ways the
		// result shape cannot express, so it is dropped entirely.
		log.Warn("scan aborted", zap.Error(err))
		metrics.ScansFailed.Inc()
		r.fail(task, eris.Wrap(err, "worker: scan aborted"))
		return
	}

	presence := reconcile.Reconcile(task.Business, harvested)
	flags := insights.Generate(insights.FromReconciled(presence), task.Business, r.registry)

	result := &model.ScanResult{
		ScanID:     task.ID,
		Business:   task.Business,
		Presence:   *presence,
		Insights:   flags,
		FinishedAt: time.Now().UTC(),
	}

	if err := r.queue.Complete(ctx, task.ID, result); err != nil {
		log.Error("worker: record completion", zap.Error(err))
		metrics.ScansFailed.Inc()
		r.fail(task, err)
		return
	}
	if r.store != nil {
		if err := r.store.SaveResult(ctx, task.ID, result); err != nil {
			log.Warn("worker: persist result", zap.Error(err))
		}
	}

	metrics.ScansCompleted.Inc()
	metrics.ScanDuration.Observe(time.Since(started).Seconds())
	log.Info("scan completed",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("social_links", len(result.Presence.SocialLinks)),
	)

	if r.deliverer != nil && task.WebhookURL != "" {
		r.deliver(ctx, task, result, log)
	}
}

// fail records the failure against a fresh context so a canceled scan can
// still be marked failed in the queue and store.
func (r *Runner) fail(task *queue.Task, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.queue.Fail(ctx, task.ID, cause.Error()); err != nil {
		zap.L().Error("worker: record failure", zap.String("scan_id", task.ID), zap.Error(err))
	}
	if r.store != nil {
		if err := r.store.UpdateScanStatus(ctx, task.ID, model.ScanStatusFailed); err != nil {
			zap.L().Warn("worker: update store status", zap.String("scan_id", task.ID), zap.Error(err))
		}
	}
}

func (r *Runner) deliver(ctx context.Context, task *queue.Task, result *model.ScanResult, log *zap.Logger) {
	if err := r.deliverer.Deliver(ctx, task.WebhookURL, result); err != nil {
		// Delivery failure never fails the scan; the result stays queryable.
		log.Error("worker: webhook delivery failed", zap.String("url", task.WebhookURL), zap.Error(err))
		metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
		return
	}
	metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
}
