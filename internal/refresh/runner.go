package refresh

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Pruner deletes expired cached text-generation results.
type Pruner interface {
	PruneAICache(ctx context.Context, now time.Time) (int64, error)
}

// Runner schedules board reloads and cache pruning on a cron spec with a
// seconds field.
type Runner struct {
	cron    *cron.Cron
	board   *Board
	pruner  Pruner
	baseCtx context.Context
	now     func() time.Time
}

// NewRunner registers both jobs on spec. pruner may be nil.
func NewRunner(baseCtx context.Context, spec string, board *Board, pruner Pruner) (*Runner, error) {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	r := &Runner{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		board:   board,
		pruner:  pruner,
		baseCtx: baseCtx,
		now:     time.Now,
	}
	if _, err := r.cron.AddFunc(spec, func() { r.RunOnce(r.baseCtx) }); err != nil {
		return nil, eris.Wrapf(err, "refresh: invalid cron spec %q", spec)
	}
	return r, nil
}

// RunOnce reloads the board and prunes the cache. Failures are logged; the
// next tick tries again.
func (r *Runner) RunOnce(ctx context.Context) {
	if err := r.board.Reload(ctx); err != nil {
		zap.L().Warn("refresh: reload failed, keeping previous snapshot", zap.Error(err))
	}
	if r.pruner == nil {
		return
	}
	n, err := r.pruner.PruneAICache(ctx, r.now())
	if err != nil {
		zap.L().Warn("refresh: prune ai cache failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Debug("refresh: pruned ai cache", zap.Int64("entries", n))
	}
}

// Start runs the scheduler in the background.
func (r *Runner) Start() {
	zap.L().Info("refresh scheduler started")
	r.cron.Start()
}

// Stop waits for a running job to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	zap.L().Info("refresh scheduler stopped")
}
