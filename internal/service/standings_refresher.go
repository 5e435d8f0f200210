package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/pkg/jobs"
)

const refreshJobType = "standings.refresh"

type standingsRefreshTarget interface {
	Invalidate(ctx context.Context, subjectID string) error
	Refresh(ctx context.Context, subjectID string) error
	CacheEnabled() bool
}

// StandingsRefresher invalidates a subject's standings after a write and, when caching is on,
// recomputes them in the background so the next read is warm.
type StandingsRefresher struct {
	target  standingsRefreshTarget
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewStandingsRefresher builds a refresher with its own worker queue.
func NewStandingsRefresher(target standingsRefreshTarget, metrics *MetricsService, cfg jobs.QueueConfig) *StandingsRefresher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	r := &StandingsRefresher{target: target, metrics: metrics, logger: cfg.Logger}
	r.queue = jobs.NewQueue("standings-refresh", r.handle, cfg)
	return r
}

// Start launches the refresh workers.
func (r *StandingsRefresher) Start(ctx context.Context) {
	r.queue.Start(ctx)
}

// Stop drains the refresh workers.
func (r *StandingsRefresher) Stop() {
	r.queue.Stop()
}

// SubjectChanged invalidates synchronously, then schedules a recompute.
func (r *StandingsRefresher) SubjectChanged(ctx context.Context, subjectID string) {
	if err := r.target.Invalidate(ctx, subjectID); err != nil {
		r.logger.Warn("standings invalidation failed", zap.String("subject_id", subjectID), zap.Error(err))
	}
	if !r.target.CacheEnabled() || !r.queue.Started() {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: refreshJobType, Key: subjectID}
	if err := r.queue.Enqueue(job); err != nil {
		r.logger.Warn("standings refresh not scheduled", zap.String("subject_id", subjectID), zap.Error(err))
	}
}

func (r *StandingsRefresher) handle(ctx context.Context, job jobs.Job) error {
	if err := r.target.Refresh(ctx, job.Key); err != nil {
		r.metrics.RecordRefresh("failed")
		return err
	}
	r.metrics.RecordRefresh("completed")
	return nil
}
