package analyst

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/sells-group/dealboard/internal/resilience"
)

// GuardConfig bounds how hard a provider is driven.
type GuardConfig struct {
	RequestsPerSecond float64
	MaxConcurrency    int
	MaxRetries        int
}

// Guard wraps an Analyst with a rate limiter, a concurrency cap and retry on
// transient failures.
type Guard struct {
	next    Analyst
	limiter *rate.Limiter
	sem     *semaphore.Weighted
	retry   resilience.Policy
}

// NewGuard wraps next. Non-positive limits disable that bound.
func NewGuard(next Analyst, cfg GuardConfig) *Guard {
	g := &Guard{next: next, retry: resilience.NewPolicy("analyst", cfg.MaxRetries)}
	if cfg.RequestsPerSecond > 0 {
		burst := max(int(cfg.RequestsPerSecond), 1)
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if cfg.MaxConcurrency > 0 {
		g.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrency))
	}
	return g
}

func guarded[T any](ctx context.Context, g *Guard, action Action, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if g.sem != nil {
		if err := g.sem.Acquire(ctx, 1); err != nil {
			return zero, eris.Wrapf(err, "analyst: %s: wait for slot", action)
		}
		defer g.sem.Release(1)
	}

	return resilience.Call(ctx, g.retry, string(action), func(ctx context.Context) (T, error) {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return zero, eris.Wrapf(err, "analyst: %s: rate limit", action)
			}
		}
		return fn(ctx)
	})
}

// AnalyzeDeal calls the wrapped analyst within the guard limits.
func (g *Guard) AnalyzeDeal(ctx context.Context, brief DealBrief) (*DealAnalysis, error) {
	return guarded(ctx, g, ActionAnalyzeDeal, func(ctx context.Context) (*DealAnalysis, error) {
		return g.next.AnalyzeDeal(ctx, brief)
	})
}

// MarketInsights calls the wrapped analyst within the guard limits.
func (g *Guard) MarketInsights(ctx context.Context, req MarketRequest) (*MarketInsights, error) {
	return guarded(ctx, g, ActionMarketInsights, func(ctx context.Context) (*MarketInsights, error) {
		return g.next.MarketInsights(ctx, req)
	})
}

// InvestmentReport calls the wrapped analyst within the guard limits.
func (g *Guard) InvestmentReport(ctx context.Context, req ReportRequest) (*Report, error) {
	return guarded(ctx, g, ActionInvestmentReport, func(ctx context.Context) (*Report, error) {
		return g.next.InvestmentReport(ctx, req)
	})
}
