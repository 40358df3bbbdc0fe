package services

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/maicon-romano/previzi/internal/cache"
	"github.com/maicon-romano/previzi/internal/core"
	"github.com/maicon-romano/previzi/internal/storage"
)

// ProjectionRequest carries everything a projection run needs besides the
// stored transactions.
type ProjectionRequest struct {
	PeriodMonths    int                  `json:"periodMonths"`
	StartingBalance core.Money           `json:"startingBalance"`
	Simulations     []core.SimulatedItem `json:"simulations,omitempty"`
}

// ProjectionResult bundles the timeline with the derived analytics so one
// request answers the whole dashboard.
type ProjectionResult struct {
	Projection      []core.ProjectionMonth `json:"projection"`
	Analysis        core.Analysis          `json:"analysis"`
	Health          core.HealthIndicators  `json:"health"`
	Recommendations []core.Recommendation  `json:"recommendations"`
}

// Projector computes cached projection results on top of the stored
// transaction pool. Before computing it asks the materializer to fill in
// any infinite-series instances missing from the horizon, so projections
// always see a complete pool.
type Projector struct {
	store        storage.TransactionStore
	materializer *Materializer
	results      *cache.LRUCache[*ProjectionResult]
}

func NewProjector(store storage.TransactionStore, m *Materializer, results *cache.LRUCache[*ProjectionResult]) *Projector {
	return &Projector{store: store, materializer: m, results: results}
}

// Project runs the full pipeline: materialize missing months, build the
// timeline, analyze it, grade health, derive recommendations. Results are
// cached per user and request shape; any simulation input bypasses nothing
// since the simulations are part of the cache key.
func (p *Projector) Project(ctx context.Context, userID string, req ProjectionRequest, now time.Time) (*ProjectionResult, error) {
	if req.PeriodMonths <= 0 {
		return nil, fmt.Errorf("%w: got %d months", core.ErrInvalidPeriod, req.PeriodMonths)
	}

	key := p.cacheKey(userID, req, now)
	if p.results != nil {
		if res, ok := p.results.Get(key); ok {
			return res, nil
		}
	}

	for i := 0; i < req.PeriodMonths; i++ {
		month := core.AddMonthsClamped(now, i)
		if _, err := p.materializer.EnsureMonth(ctx, userID, month.Year(), int(month.Month())); err != nil {
			return nil, fmt.Errorf("materialize month %s: %w", core.MonthKey(month), err)
		}
	}

	pool, err := p.store.GetAllTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	synthetic := core.MapScenarios(req.Simulations, req.PeriodMonths, now)
	projection := core.BuildProjection(req.PeriodMonths, pool, synthetic, req.StartingBalance, now)

	combined := make([]core.Transaction, 0, len(pool)+len(synthetic))
	combined = append(combined, pool...)
	combined = append(combined, synthetic...)

	analysis := core.Analyze(projection, combined)
	health := core.ComputeHealth(analysis, req.PeriodMonths)

	res := &ProjectionResult{
		Projection:      projection,
		Analysis:        analysis,
		Health:          health,
		Recommendations: core.Recommendations(projection, health, analysis),
	}
	if p.results != nil {
		p.results.Set(key, res)
	}
	slog.DebugContext(ctx, "Projection computed",
		"user_id", userID,
		"period_months", req.PeriodMonths,
		"pool_size", len(pool),
		"simulations", len(req.Simulations))
	return res, nil
}

// Invalidate drops every cached result for a user. Called after any write
// that changes the user's transaction pool.
func (p *Projector) Invalidate(userID string) {
	if p.results == nil {
		return
	}
	p.results.PurgePrefix(userID + ":")
}

// cacheKey folds the request shape into a digest so distinct simulation
// sets never collide. The key is prefixed with the user id to support
// per-user purging.
func (p *Projector) cacheKey(userID string, req ProjectionRequest, now time.Time) string {
	h := fnv.New64a()
	if raw, err := json.Marshal(req); err == nil {
		h.Write(raw)
	}
	return fmt.Sprintf("%s:%s:%x", userID, core.MonthKey(now), h.Sum64())
}
