package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maicon-romano/previzi/internal/core"
	"github.com/maicon-romano/previzi/internal/services"
	"github.com/maicon-romano/previzi/internal/storage"
)

// Prefiller keeps open-ended series materialized ahead of time so month
// listings and projections do not pay the generation cost on the request path.
type Prefiller struct {
	store       storage.TransactionStore
	series      *services.Materializer
	monthsAhead int
	concurrency int
}

func NewPrefiller(store storage.TransactionStore, series *services.Materializer, monthsAhead int) *Prefiller {
	if monthsAhead < 1 {
		monthsAhead = 1
	}
	return &Prefiller{
		store:       store,
		series:      series,
		monthsAhead: monthsAhead,
		concurrency: 4,
	}
}

// Run materializes the current month plus monthsAhead future months for every
// known user. It returns the total number of instances created.
func (w *Prefiller) Run(ctx context.Context, now time.Time) (int, error) {
	users, err := w.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	if len(users) == 0 {
		slog.InfoContext(ctx, "No users to prefill")
		return 0, nil
	}

	var created atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, userID := range users {
		g.Go(func() error {
			n, err := w.prefillUser(gctx, userID, now)
			if err != nil {
				return fmt.Errorf("prefill user %s: %w", userID, err)
			}
			created.Add(int64(n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(created.Load()), err
	}

	slog.InfoContext(ctx, "Prefill run complete",
		"users", len(users),
		"months_ahead", w.monthsAhead,
		"instances_created", created.Load())

	return int(created.Load()), nil
}

func (w *Prefiller) prefillUser(ctx context.Context, userID string, now time.Time) (int, error) {
	total := 0
	for i := 0; i <= w.monthsAhead; i++ {
		month := core.AddMonthsClamped(now, i)
		n, err := w.series.EnsureMonth(ctx, userID, month.Year(), int(month.Month()))
		if err != nil {
			return total, fmt.Errorf("ensure month %s: %w", core.MonthKeyOf(month.Year(), int(month.Month())), err)
		}
		total += n
	}
	if total > 0 {
		slog.InfoContext(ctx, "Materialized upcoming instances",
			"user_id", userID,
			"instances_created", total)
	}
	return total, nil
}
