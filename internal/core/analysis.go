package core

import "sort"

// UnspecifiedSource labels income whose source was left unset.
const UnspecifiedSource = "unspecified"

// Allocation percentages and illustrative return rates used by the
// investment scenarios. Flat multipliers, not compounding math.
var investmentAllocations = []int{10, 20, 30, 50}

const (
	sixMonthRatePercent    = 6
	twelveMonthRatePercent = 12
)

// LabeledAmount is an aggregate keyed by a free-text label (source or
// category), used for descending-order breakdowns.
type LabeledAmount struct {
	Label  string `json:"label"`
	Amount Money  `json:"amount"`
}

// InvestmentScenario illustrates allocating a fixed share of the final
// balance at nominal 6% and 12% horizon returns.
type InvestmentScenario struct {
	AllocationPercent int   `json:"allocationPercent"`
	InvestmentAmount  Money `json:"investmentAmount"`
	RemainingBalance  Money `json:"remainingBalance"`
	SixMonthReturn    Money `json:"sixMonthReturn"`
	TwelveMonthReturn Money `json:"twelveMonthReturn"`
}

// Analysis summarizes a built projection plus its raw transaction pool.
type Analysis struct {
	TotalIncome         Money                `json:"totalIncome"`
	TotalExpenses       Money                `json:"totalExpenses"`
	FinalBalance        Money                `json:"finalBalance"`
	AvgMonthlyBalance   Money                `json:"avgMonthlyBalance"`
	IncomeBySource      []LabeledAmount      `json:"incomeBySource"`
	ExpensesByCategory  []LabeledAmount      `json:"expensesByCategory"`
	InvestmentScenarios []InvestmentScenario `json:"investmentScenarios"`
}

// Analyze derives aggregate statistics from a projection timeline and the
// transaction pool it was built from. Empty projections resolve to zeros,
// never to an error.
func Analyze(projection []ProjectionMonth, pool []Transaction) Analysis {
	var a Analysis
	for _, row := range projection {
		a.TotalIncome.Cents += row.Income.Cents
		a.TotalExpenses.Cents += row.Expenses.Cents
	}
	if n := len(projection); n > 0 {
		a.FinalBalance = projection[n-1].AccumulatedBalance
		a.AvgMonthlyBalance = Money{Cents: (a.TotalIncome.Cents - a.TotalExpenses.Cents) / int64(n)}
	}

	a.IncomeBySource = groupAmounts(pool, Income, func(tx Transaction) string {
		if tx.Source == "" {
			return UnspecifiedSource
		}
		return tx.Source
	})
	a.ExpensesByCategory = groupAmounts(pool, Expense, func(tx Transaction) string {
		return tx.Category
	})

	for _, pct := range investmentAllocations {
		invested := a.FinalBalance.Cents * int64(pct) / 100
		a.InvestmentScenarios = append(a.InvestmentScenarios, InvestmentScenario{
			AllocationPercent: pct,
			InvestmentAmount:  Money{Cents: invested},
			RemainingBalance:  Money{Cents: a.FinalBalance.Cents - invested},
			SixMonthReturn:    Money{Cents: invested * sixMonthRatePercent / 100},
			TwelveMonthReturn: Money{Cents: invested * twelveMonthRatePercent / 100},
		})
	}
	return a
}

func groupAmounts(pool []Transaction, kind TransactionType, label func(Transaction) string) []LabeledAmount {
	sums := make(map[string]int64)
	for _, tx := range pool {
		if tx.Type != kind || tx.Amount == nil {
			continue
		}
		sums[label(tx)] += tx.Amount.Cents
	}
	out := make([]LabeledAmount, 0, len(sums))
	for name, cents := range sums {
		out = append(out, LabeledAmount{Label: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Label < out[j].Label
	})
	return out
}
