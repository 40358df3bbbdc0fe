package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maicon-romano/previzi/internal/cache"
	"github.com/maicon-romano/previzi/internal/core"
	"github.com/maicon-romano/previzi/internal/storage/memory"
)

func newProjector(t *testing.T) (*Projector, *Materializer, *memory.Store) {
	t.Helper()
	store := memory.New()
	m := NewMaterializer(store, nil)
	results := cache.NewLRUCache[*ProjectionResult](16, time.Minute)
	return NewProjector(store, m, results), m, store
}

func TestProjectMaterializesHorizon(t *testing.T) {
	p, m, store := newProjector(t)
	ctx := context.Background()
	now := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)

	if _, err := m.Materialize(ctx, infiniteDef("u1", time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	res, err := p.Project(ctx, "u1", ProjectionRequest{PeriodMonths: 3}, now)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if len(res.Projection) != 3 {
		t.Fatalf("projection rows = %d, want 3", len(res.Projection))
	}

	// The infinite salary must have been filled into every horizon month.
	for i, row := range res.Projection {
		if row.Income.Cents != 500000 {
			t.Errorf("row %d income = %d, want 500000", i, row.Income.Cents)
		}
	}
	all, _ := store.GetAllTransactions(ctx, "u1")
	if len(all) != 3 {
		t.Errorf("stored instances after projection = %d, want 3", len(all))
	}
}

func TestProjectWithSimulations(t *testing.T) {
	p, _, _ := newProjector(t)
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	req := ProjectionRequest{
		PeriodMonths:    2,
		StartingBalance: core.Money{Cents: 10000},
		Simulations: []core.SimulatedItem{
			{ID: "gym", Description: "Gym", Type: core.Expense, Amount: core.Money{Cents: 5000}, Start: now, Enabled: true},
		},
	}
	res, err := p.Project(context.Background(), "u1", req, now)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if got := res.Projection[0].Expenses.Cents; got != 5000 {
		t.Errorf("first month expenses = %d, want 5000", got)
	}
	if got := res.Projection[1].AccumulatedBalance.Cents; got != 0 {
		t.Errorf("final balance = %d, want 0", got)
	}
}

func TestProjectRejectsInvalidPeriod(t *testing.T) {
	p, _, _ := newProjector(t)
	for _, months := range []int{0, -3} {
		_, err := p.Project(context.Background(), "u1", ProjectionRequest{PeriodMonths: months}, time.Now())
		if !errors.Is(err, core.ErrInvalidPeriod) {
			t.Errorf("period %d: err = %v, want ErrInvalidPeriod", months, err)
		}
	}
}

func TestProjectCachingAndInvalidation(t *testing.T) {
	p, _, _ := newProjector(t)
	ctx := context.Background()
	now := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	req := ProjectionRequest{PeriodMonths: 2, StartingBalance: core.Money{Cents: 1000}}

	first, err := p.Project(ctx, "u1", req, now)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	second, err := p.Project(ctx, "u1", req, now)
	if err != nil {
		t.Fatalf("Project() second call error = %v", err)
	}
	if first != second {
		t.Error("second identical request should hit the cache")
	}

	// Distinct simulations must not share a cache entry.
	withSim := req
	withSim.Simulations = []core.SimulatedItem{
		{ID: "x", Description: "X", Type: core.Income, Amount: core.Money{Cents: 100}, Start: now, Enabled: true},
	}
	third, err := p.Project(ctx, "u1", withSim, now)
	if err != nil {
		t.Fatalf("Project() with simulations error = %v", err)
	}
	if third == first {
		t.Error("different request shape must miss the cache")
	}

	p.Invalidate("u1")
	fourth, err := p.Project(ctx, "u1", req, now)
	if err != nil {
		t.Fatalf("Project() after invalidate error = %v", err)
	}
	if fourth == first {
		t.Error("invalidated entry should have been recomputed")
	}
}
