package core

import "time"

// ProjectionMonth is one row of a computed balance timeline.
type ProjectionMonth struct {
	Month              string `json:"month"`
	MonthKey           string `json:"monthKey"`
	Income             Money  `json:"income"`
	Expenses           Money  `json:"expenses"`
	MonthlyBalance     Money  `json:"monthlyBalance"`
	AccumulatedBalance Money  `json:"accumulatedBalance"`
	IsNegative         bool   `json:"isNegative"`
}

// BuildProjection folds real and synthetic transactions into an ordered
// month-by-month timeline starting at now's calendar month. Transactions
// with no amount set contribute zero. An empty pool yields periodMonths
// rows with the accumulated balance flat at startingBalance.
//
// Pure over its inputs: the slices are never mutated and the result is
// fully determined by the arguments.
func BuildProjection(periodMonths int, real, synthetic []Transaction, startingBalance Money, now time.Time) []ProjectionMonth {
	pool := make([]Transaction, 0, len(real)+len(synthetic))
	pool = append(pool, real...)
	pool = append(pool, synthetic...)

	rows := make([]ProjectionMonth, 0, periodMonths)
	accumulated := startingBalance.Cents
	for offset := 0; offset < periodMonths; offset++ {
		ref := time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
		key := MonthKey(ref)

		var income, expenses int64
		for _, tx := range pool {
			if tx.MonthRef != key || tx.Amount == nil {
				continue
			}
			switch tx.Type {
			case Income:
				income += tx.Amount.Cents
			case Expense:
				expenses += tx.Amount.Cents
			}
		}

		monthly := income - expenses
		accumulated += monthly
		rows = append(rows, ProjectionMonth{
			Month:              ref.Format("January 2006"),
			MonthKey:           key,
			Income:             Money{Cents: income},
			Expenses:           Money{Cents: expenses},
			MonthlyBalance:     Money{Cents: monthly},
			AccumulatedBalance: Money{Cents: accumulated},
			IsNegative:         accumulated < 0,
		})
	}
	return rows
}
