// Package pipeline keeps the current-year tornado cache warm on a schedule
// and publishes a snapshot after every successful refresh.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"github.com/couchcryptid/public-data-proxy/internal/aggregate"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// TrendRunner produces tornado trends.
type TrendRunner interface {
	Run(ctx context.Context, req aggregate.TornadoRequest) (aggregate.TornadoResult, error)
}

// SnapshotPublisher delivers snapshots downstream.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap domain.Snapshot) error
}

// Warmer refreshes the current year on a cron schedule.
type Warmer struct {
	trends    TrendRunner
	publisher SnapshotPublisher
	schedule  cron.Schedule
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
	ready     atomic.Bool

	backoff    time.Duration
	maxBackoff time.Duration
}

// NewWarmer parses spec (standard five-field cron or a descriptor such as
// "@every 1h"). An empty spec disables the warmer and reports ready at once.
// publisher may be nil.
func NewWarmer(trends TrendRunner, publisher SnapshotPublisher, spec string, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) (*Warmer, error) {
	w := &Warmer{
		trends:     trends,
		publisher:  publisher,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
		backoff:    initialBackoff,
		maxBackoff: maxBackoff,
	}
	if spec == "" {
		w.ready.Store(true)
		return w, nil
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_SCHEDULE %q: %w", spec, err)
	}
	w.schedule = sched
	return w, nil
}

// CheckReadiness returns nil once the first refresh has succeeded, or
// always when the warmer is disabled.
func (w *Warmer) CheckReadiness(_ context.Context) error {
	if !w.ready.Load() {
		return errors.New("tornado cache has not been warmed yet")
	}
	return nil
}

// Run refreshes immediately and then at every scheduled time until ctx is
// cancelled. A failed refresh is retried with exponential backoff until it
// succeeds or the next scheduled time arrives.
func (w *Warmer) Run(ctx context.Context) error {
	if w.schedule == nil {
		w.logger.Info("cache warmer disabled")
		return nil
	}
	w.logger.Info("cache warmer started")
	w.metrics.WarmerRunning.Set(1)
	defer w.metrics.WarmerRunning.Set(0)

	for {
		next := w.schedule.Next(w.clock.Now())
		w.refreshUntil(ctx, next)

		select {
		case <-ctx.Done():
			w.logger.Info("cache warmer stopping", "reason", ctx.Err())
			return nil
		case <-w.clock.After(next.Sub(w.clock.Now())):
		}
	}
}

func (w *Warmer) refreshUntil(ctx context.Context, deadline time.Time) {
	backoff := w.backoff
	for {
		err := w.RunOnce(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}
		w.logger.Error("cache refresh failed", "error", err, "retry_in", backoff)
		if !w.clock.Now().Add(backoff).Before(deadline) {
			return
		}
		if !retry.SleepWithContext(ctx, backoff) {
			return
		}
		backoff = retry.NextBackoff(backoff, w.maxBackoff)
	}
}

// RunOnce refreshes the current year and publishes its snapshot. A publish
// failure fails the run; the cache itself stays refreshed.
func (w *Warmer) RunOnce(ctx context.Context) error {
	now := w.clock.Now().UTC()
	year := now.Year()

	res, err := w.trends.Run(ctx, aggregate.TornadoRequest{StartYear: year, CurrentYear: year})
	if err != nil {
		w.metrics.WarmerRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("refresh %d: %w", year, err)
	}
	current, ok := res.Current()
	if !ok {
		w.metrics.WarmerRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("refresh %d: %w", year, domain.ErrNoData)
	}

	if w.publisher != nil {
		if err := w.publisher.Publish(ctx, snapshotOf(current, now)); err != nil {
			w.metrics.WarmerRuns.WithLabelValues("error").Inc()
			return err
		}
	}

	w.metrics.WarmerRuns.WithLabelValues("success").Inc()
	if !w.ready.Swap(true) {
		w.logger.Info("tornado cache warm", "year", year, "total_reports", current.TotalReports)
	}
	return nil
}

func snapshotOf(ys domain.YearSeries, now time.Time) domain.Snapshot {
	snap := domain.Snapshot{
		Year:         ys.Year,
		TotalReports: ys.TotalReports,
		Days:         len(ys.Series),
		GeneratedAt:  now,
	}
	if ys.LastReportDate != nil {
		snap.LastReportDate = *ys.LastReportDate
	}
	return snap
}
