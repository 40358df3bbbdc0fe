package worker

import (
	"context"
	"testing"
	"time"

	"github.com/maicon-romano/previzi/internal/core"
	"github.com/maicon-romano/previzi/internal/services"
	"github.com/maicon-romano/previzi/internal/storage/memory"
)

func seedInfiniteSeries(t *testing.T, m *services.Materializer, userID string, date time.Time) {
	t.Helper()
	amount := core.Money{Cents: 500000}
	def := core.Transaction{
		UserID:        userID,
		Type:          core.Income,
		Description:   "Salary",
		Category:      "salary",
		Amount:        &amount,
		Date:          date,
		Status:        core.Pending,
		Recurring:     true,
		RecurringKind: core.Infinite,
	}
	if _, err := m.Materialize(context.Background(), def); err != nil {
		t.Fatalf("materialize: %v", err)
	}
}

func TestPrefillerRun(t *testing.T) {
	store := memory.New()
	series := services.NewMaterializer(store, nil)
	now := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	seedInfiniteSeries(t, series, "u1", time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	seedInfiniteSeries(t, series, "u2", time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))

	w := NewPrefiller(store, series, 1)

	// u1: March and April need instances. u2: origin covers March, April needs one.
	created, err := w.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if created != 3 {
		t.Fatalf("created = %d, want 3", created)
	}

	created, err = w.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if created != 0 {
		t.Fatalf("second run created = %d, want 0", created)
	}
}

func TestPrefillerNoUsers(t *testing.T) {
	store := memory.New()
	w := NewPrefiller(store, services.NewMaterializer(store, nil), 2)

	created, err := w.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if created != 0 {
		t.Fatalf("created = %d, want 0", created)
	}
}
