package core

import (
	"testing"
	"time"
)

func TestMapScenariosThreeMonthIncome(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	items := []SimulatedItem{{
		ID:          "freelance",
		Type:        Income,
		Description: "freelance gig",
		Amount:      Money{Cents: 100000},
		Start:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Enabled:     true,
	}}

	synthetic := MapScenarios(items, 3, now)
	if len(synthetic) != 3 {
		t.Fatalf("got %d synthetic records, want 3", len(synthetic))
	}
	wantKeys := []string{"2024-06", "2024-07", "2024-08"}
	for i, tx := range synthetic {
		if tx.MonthRef != wantKeys[i] {
			t.Errorf("record %d monthRef = %q, want %q", i, tx.MonthRef, wantKeys[i])
		}
		if tx.Date.Day() != 15 {
			t.Errorf("record %d day = %d, want mid-month 15", i, tx.Date.Day())
		}
		if tx.Status != Pending || tx.Recurring {
			t.Errorf("record %d: status=%q recurring=%v, want pending non-recurring", i, tx.Status, tx.Recurring)
		}
		if tx.Category != SimulatedCategory || tx.Source != SimulatedSource {
			t.Errorf("record %d not tagged as simulated: category=%q source=%q", i, tx.Category, tx.Source)
		}
	}

	rows := BuildProjection(3, nil, synthetic, Money{}, now)
	wantBalances := []int64{100000, 200000, 300000}
	for i, row := range rows {
		if row.AccumulatedBalance.Cents != wantBalances[i] {
			t.Errorf("month %d accumulated = %d, want %d", i, row.AccumulatedBalance.Cents, wantBalances[i])
		}
	}
}

func TestMapScenariosWindowAndFlags(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)
	items := []SimulatedItem{
		{
			ID: "bounded", Type: Expense, Description: "course",
			Amount: Money{Cents: 5000},
			Start:  time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			End:    &end, Enabled: true,
		},
		{
			ID: "disabled", Type: Income, Description: "ignored",
			Amount: Money{Cents: 9999},
			Start:  now, Enabled: false,
		},
		{
			ID: "starts late in month", Type: Income, Description: "after mid-month",
			Amount: Money{Cents: 7000},
			Start:  time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
			Enabled: true,
		},
	}

	synthetic := MapScenarios(items, 4, now)

	got := map[string]int{}
	for _, tx := range synthetic {
		got[tx.Description]++
	}
	// bounded: only July's day 15 falls inside [Jul 1, Jul 31]
	if got["course"] != 1 {
		t.Errorf("bounded item mapped %d times, want 1", got["course"])
	}
	if got["ignored"] != 0 {
		t.Errorf("disabled item mapped %d times, want 0", got["ignored"])
	}
	// starting after the 15th skips the first month entirely
	if got["after mid-month"] != 3 {
		t.Errorf("late-start item mapped %d times, want 3", got["after mid-month"])
	}
}

func TestMapScenariosDeterministic(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []SimulatedItem{{
		ID: "x", Type: Income, Description: "d",
		Amount: Money{Cents: 100}, Start: now, Enabled: true,
	}}
	a := MapScenarios(items, 2, now)
	b := MapScenarios(items, 2, now)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].MonthRef != b[i].MonthRef {
			t.Errorf("record %d differs between calls", i)
		}
	}
	if a[0].ID != "sim-x-0" || a[1].ID != "sim-x-1" {
		t.Errorf("synthetic ids = %q, %q; want sim-x-0, sim-x-1", a[0].ID, a[1].ID)
	}
}
