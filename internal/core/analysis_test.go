package core

import (
	"testing"
	"time"
)

func TestAnalyzeTotalsAndBalance(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	pool := []Transaction{
		monthTx("salary", Income, 500000, 2024, 6, 5),
		monthTx("rent", Expense, 180000, 2024, 6, 1),
		monthTx("salary2", Income, 500000, 2024, 7, 5),
		monthTx("rent2", Expense, 180000, 2024, 7, 1),
	}
	projection := BuildProjection(2, pool, nil, Money{}, now)
	a := Analyze(projection, pool)

	if a.TotalIncome.Cents != 1000000 {
		t.Errorf("totalIncome = %d, want 1000000", a.TotalIncome.Cents)
	}
	if a.TotalExpenses.Cents != 360000 {
		t.Errorf("totalExpenses = %d, want 360000", a.TotalExpenses.Cents)
	}
	if a.FinalBalance.Cents != 640000 {
		t.Errorf("finalBalance = %d, want 640000", a.FinalBalance.Cents)
	}
	if a.AvgMonthlyBalance.Cents != 320000 {
		t.Errorf("avgMonthlyBalance = %d, want 320000", a.AvgMonthlyBalance.Cents)
	}
}

func TestAnalyzeEmptyProjection(t *testing.T) {
	a := Analyze(nil, nil)
	if a.FinalBalance.Cents != 0 || a.AvgMonthlyBalance.Cents != 0 {
		t.Errorf("empty projection should resolve to zeros, got %+v", a)
	}
	if len(a.InvestmentScenarios) != 4 {
		t.Errorf("got %d investment scenarios, want 4", len(a.InvestmentScenarios))
	}
}

func TestAnalyzeGroupings(t *testing.T) {
	salaried := monthTx("a", Income, 300000, 2024, 6, 1)
	salaried.Source = "employer"
	side := monthTx("b", Income, 100000, 2024, 6, 2)
	side.Source = "side gig"
	unsourced := monthTx("c", Income, 50000, 2024, 6, 3)

	food := monthTx("d", Expense, 40000, 2024, 6, 4)
	food.Category = "food"
	housing := monthTx("e", Expense, 90000, 2024, 6, 5)
	housing.Category = "housing"

	pool := []Transaction{salaried, side, unsourced, food, housing}
	a := Analyze(nil, pool)

	if len(a.IncomeBySource) != 3 {
		t.Fatalf("got %d income sources, want 3", len(a.IncomeBySource))
	}
	if a.IncomeBySource[0].Label != "employer" || a.IncomeBySource[0].Amount.Cents != 300000 {
		t.Errorf("top source = %+v, want employer/300000", a.IncomeBySource[0])
	}
	if a.IncomeBySource[2].Label != UnspecifiedSource {
		t.Errorf("unset source label = %q, want %q", a.IncomeBySource[2].Label, UnspecifiedSource)
	}

	if len(a.ExpensesByCategory) != 2 {
		t.Fatalf("got %d expense categories, want 2", len(a.ExpensesByCategory))
	}
	if a.ExpensesByCategory[0].Label != "housing" {
		t.Errorf("top category = %q, want housing (descending order)", a.ExpensesByCategory[0].Label)
	}
}

func TestInvestmentScenarios(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	pool := []Transaction{monthTx("win", Income, 1000000, 2024, 6, 1)}
	projection := BuildProjection(1, pool, nil, Money{}, now)
	a := Analyze(projection, pool)

	wantPcts := []int{10, 20, 30, 50}
	for i, sc := range a.InvestmentScenarios {
		if sc.AllocationPercent != wantPcts[i] {
			t.Errorf("scenario %d percent = %d, want %d", i, sc.AllocationPercent, wantPcts[i])
		}
		wantInvested := a.FinalBalance.Cents * int64(wantPcts[i]) / 100
		if sc.InvestmentAmount.Cents != wantInvested {
			t.Errorf("scenario %d invested = %d, want %d", i, sc.InvestmentAmount.Cents, wantInvested)
		}
		if sc.RemainingBalance.Cents != a.FinalBalance.Cents-wantInvested {
			t.Errorf("scenario %d remaining = %d", i, sc.RemainingBalance.Cents)
		}
		if sc.SixMonthReturn.Cents != wantInvested*6/100 {
			t.Errorf("scenario %d 6m return = %d, want %d", i, sc.SixMonthReturn.Cents, wantInvested*6/100)
		}
		if sc.TwelveMonthReturn.Cents != wantInvested*12/100 {
			t.Errorf("scenario %d 12m return = %d, want %d", i, sc.TwelveMonthReturn.Cents, wantInvested*12/100)
		}
	}
}
