package export

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/maicon-romano/previzi/internal/core"
	"github.com/maicon-romano/previzi/internal/services"
)

func sampleResult() *services.ProjectionResult {
	projection := []core.ProjectionMonth{
		{
			Month:              "January 2024",
			MonthKey:           "2024-01",
			Income:             core.Money{Cents: 500000},
			Expenses:           core.Money{Cents: 300000},
			MonthlyBalance:     core.Money{Cents: 200000},
			AccumulatedBalance: core.Money{Cents: 200000},
		},
		{
			Month:              "February 2024",
			MonthKey:           "2024-02",
			Income:             core.Money{Cents: 500000},
			Expenses:           core.Money{Cents: 800000},
			MonthlyBalance:     core.Money{Cents: -300000},
			AccumulatedBalance: core.Money{Cents: -100000},
			IsNegative:         true,
		},
	}
	analysis := core.Analyze(projection, []core.Transaction{
		{Type: core.Income, Amount: &core.Money{Cents: 1000000}, Source: "salary"},
		{Type: core.Expense, Amount: &core.Money{Cents: 1100000}, Category: "housing"},
	})
	return &services.ProjectionResult{Projection: projection, Analysis: analysis}
}

func TestProjectionWorkbookRoundTrip(t *testing.T) {
	f, err := ProjectionWorkbook(sampleResult())
	if err != nil {
		t.Fatalf("ProjectionWorkbook() error = %v", err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	read, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer read.Close()

	sheets := read.GetSheetList()
	if len(sheets) != 2 || sheets[0] != projectionSheet || sheets[1] != analysisSheet {
		t.Fatalf("sheets = %v, want [%s %s]", sheets, projectionSheet, analysisSheet)
	}

	rows, err := read.GetRows(projectionSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("projection rows = %d, want header + 2", len(rows))
	}
	if rows[1][0] != "January 2024" {
		t.Errorf("first month = %q, want January 2024", rows[1][0])
	}
	if rows[2][5] != "TRUE" {
		t.Errorf("negative flag cell = %q, want TRUE", rows[2][5])
	}

	cell, err := read.GetCellValue(analysisSheet, "B1")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if cell != "10000" {
		t.Errorf("total income cell = %q, want 10000", cell)
	}
}
