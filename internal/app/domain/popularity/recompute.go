package popularity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
	"github.com/FACorreiaa/loci-pulse/internal/app/observability/metrics"
)

// Recomputer is the slow, authoritative half of the dual update path. On a
// fixed interval it rebuilds every affected item's aggregate from the ledger
// and overwrites the stored value, reconciling whatever drift the
// incremental deltas accumulated.
type Recomputer struct {
	repo     Repository
	interval time.Duration
	workers  int
	logger   *zap.Logger

	passMu sync.Mutex
}

// PassResult summarizes one recompute pass.
type PassResult struct {
	Items    int
	Failed   int
	Duration time.Duration
}

func NewRecomputer(repo Repository, interval time.Duration, workers int, logger *zap.Logger) *Recomputer {
	if workers <= 0 {
		workers = 1
	}
	return &Recomputer{
		repo:     repo,
		interval: interval,
		workers:  workers,
		logger:   logger,
	}
}

// Run ticks until the context is cancelled. A tick that fires while the
// previous pass is still running is skipped; the overwrite is idempotent so
// nothing is lost by waiting for the next tick.
func (r *Recomputer) Run(ctx context.Context) {
	r.logger.Info("Popularity recomputer started",
		zap.Duration("interval", r.interval),
		zap.Int("workers", r.workers))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Popularity recomputer stopped")
			return
		case <-ticker.C:
			if !r.passMu.TryLock() {
				r.logger.Warn("Previous recompute pass still running, skipping tick")
				continue
			}
			result, err := r.runPass(ctx)
			r.passMu.Unlock()
			if err != nil {
				r.logger.Error("Recompute pass failed", zap.Error(err))
				continue
			}
			r.logger.Info("Recompute pass completed",
				zap.Int("items", result.Items),
				zap.Int("failed", result.Failed),
				zap.Duration("duration", result.Duration))
		}
	}
}

// RunOnce executes a single serialized pass. Exposed for the admin trigger
// and tests; shares the same lock as the ticker loop.
func (r *Recomputer) RunOnce(ctx context.Context) (PassResult, error) {
	r.passMu.Lock()
	defer r.passMu.Unlock()
	return r.runPass(ctx)
}

func (r *Recomputer) runPass(ctx context.Context) (PassResult, error) {
	start := time.Now()
	now := start.UTC()

	ids, err := r.repo.ListItemsForRecompute(ctx)
	if err != nil {
		return PassResult{}, err
	}

	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, itemID := range ids {
		// Cooperative cancellation between item-units; every item already
		// written stays written, the overwrite is idempotent.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := r.recomputeItem(gctx, itemID, now); err != nil {
				failed.Add(1)
				r.logger.Warn("Failed to recompute item, skipping",
					zap.String("item_id", itemID.String()), zap.Error(err))
			}
			// Per-item failures never abort the pass.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PassResult{}, err
	}

	result := PassResult{
		Items:    len(ids),
		Failed:   int(failed.Load()),
		Duration: time.Since(start),
	}

	m := metrics.Get()
	m.RecomputePassDuration.Record(ctx, result.Duration.Seconds())
	m.RecomputeItemsTotal.Add(ctx, int64(result.Items))
	m.RecomputeFailuresTotal.Add(ctx, int64(result.Failed))

	return result, nil
}

// recomputeItem derives the aggregate from the ledger and overwrites the
// stored value. Items with no in-window activity get explicit zeros so cold
// items visibly fall out of the rankings instead of keeping a stale score.
func (r *Recomputer) recomputeItem(ctx context.Context, itemID uuid.UUID, now time.Time) error {
	counts, err := r.repo.CountWindows(ctx, itemID, now)
	if err != nil {
		return err
	}

	agg := models.PopularityAggregate{
		RecentCount: counts.Recent,
		WeeklyCount: counts.Weekly,
		TotalCount:  counts.Total,
		Score:       models.CompositeScore(counts.Recent, counts.Weekly, counts.Total),
		UpdatedAt:   now,
	}

	return r.repo.OverwriteAggregate(ctx, itemID, agg)
}
