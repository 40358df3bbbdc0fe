// Package export renders projection results to external formats: XLSX
// workbooks and Google Sheets.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/maicon-romano/previzi/internal/services"
)

const (
	projectionSheet = "Projection"
	analysisSheet   = "Analysis"
)

// ProjectionWorkbook renders a projection result as an XLSX workbook with
// one sheet for the monthly timeline and one for the derived analysis.
// The caller owns the returned file and must Close it.
func ProjectionWorkbook(res *services.ProjectionResult) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), projectionSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename projection sheet: %w", err)
	}
	if err := writeProjection(f, res); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(analysisSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create analysis sheet: %w", err)
	}
	if err := writeAnalysis(f, res); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func writeProjection(f *excelize.File, res *services.ProjectionResult) error {
	headers := []string{"Month", "Income", "Expenses", "Monthly Balance", "Accumulated Balance", "Negative"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(projectionSheet, cell, h); err != nil {
			return err
		}
	}

	for i, row := range res.Projection {
		values := []any{
			row.Month,
			row.Income.Units(),
			row.Expenses.Units(),
			row.MonthlyBalance.Units(),
			row.AccumulatedBalance.Units(),
			row.IsNegative,
		}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(projectionSheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeAnalysis(f *excelize.File, res *services.ProjectionResult) error {
	a := res.Analysis
	row := 1

	set := func(col int, r int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, r)
		if err != nil {
			return err
		}
		return f.SetCellValue(analysisSheet, cell, v)
	}

	totals := [][2]any{
		{"Total Income", a.TotalIncome.Units()},
		{"Total Expenses", a.TotalExpenses.Units()},
		{"Final Balance", a.FinalBalance.Units()},
	}
	for _, t := range totals {
		if err := set(1, row, t[0]); err != nil {
			return err
		}
		if err := set(2, row, t[1]); err != nil {
			return err
		}
		row++
	}
	row++

	if err := set(1, row, "Income by Source"); err != nil {
		return err
	}
	row++
	for _, item := range a.IncomeBySource {
		if err := set(1, row, item.Label); err != nil {
			return err
		}
		if err := set(2, row, item.Amount.Units()); err != nil {
			return err
		}
		row++
	}
	row++

	if err := set(1, row, "Expenses by Category"); err != nil {
		return err
	}
	row++
	for _, item := range a.ExpensesByCategory {
		if err := set(1, row, item.Label); err != nil {
			return err
		}
		if err := set(2, row, item.Amount.Units()); err != nil {
			return err
		}
		row++
	}
	row++

	if err := set(1, row, "Investment Scenarios"); err != nil {
		return err
	}
	row++
	for _, sc := range a.InvestmentScenarios {
		if err := set(1, row, fmt.Sprintf("%d%% of balance", sc.AllocationPercent)); err != nil {
			return err
		}
		if err := set(2, row, sc.InvestmentAmount.Units()); err != nil {
			return err
		}
		if err := set(3, row, sc.SixMonthReturn.Units()); err != nil {
			return err
		}
		if err := set(4, row, sc.TwelveMonthReturn.Units()); err != nil {
			return err
		}
		row++
	}
	return nil
}
