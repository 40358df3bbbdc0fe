package core

import (
	"errors"
	"testing"
	"time"
)

func amount(cents int64) *Money {
	return &Money{Cents: cents}
}

func validTx() Transaction {
	tx := Transaction{
		ID:          "tx-1",
		UserID:      "u1",
		Type:        Expense,
		Amount:      amount(5000),
		Category:    "housing",
		Description: "rent",
		Status:      Pending,
	}
	tx.SetDate(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	return tx
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"bad status", func(tx *Transaction) { tx.Status = "done" }, ErrInvalidStatus},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrInvalidDate},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{"nil amount non-recurring", func(tx *Transaction) { tx.Amount = nil }, ErrInvalidAmount},
		{"zero amount", func(tx *Transaction) { tx.Amount = amount(0) }, ErrInvalidAmount},
		{"nil amount variable recurring", func(tx *Transaction) {
			tx.Amount = nil
			tx.Recurring = true
			tx.IsVariableAmount = true
			tx.RecurringKind = Infinite
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTx()
			tt.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefinition(t *testing.T) {
	months := 6
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"not recurring", func(*Transaction) {}, ErrNotRecurring},
		{"infinite ok", func(tx *Transaction) {
			tx.Recurring = true
			tx.RecurringKind = Infinite
		}, nil},
		{"fixed with months ok", func(tx *Transaction) {
			tx.Recurring = true
			tx.RecurringKind = Fixed
			tx.RecurringMonths = &months
		}, nil},
		{"fixed without bound", func(tx *Transaction) {
			tx.Recurring = true
			tx.RecurringKind = Fixed
		}, ErrMissingRecurrenceBound},
		{"unknown kind", func(tx *Transaction) {
			tx.Recurring = true
			tx.RecurringKind = "weekly"
		}, ErrUnknownRecurrenceKind},
		{"fixed variable with nil amount ok", func(tx *Transaction) {
			tx.Recurring = true
			tx.RecurringKind = Fixed
			tx.RecurringMonths = &months
			tx.IsVariableAmount = true
			tx.Amount = nil
		}, nil},
		{"non-variable with nil amount rejected", func(tx *Transaction) {
			tx.Recurring = true
			tx.RecurringKind = Infinite
			tx.Amount = nil
		}, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTx()
			tt.mutate(&tx)
			err := tx.ValidateDefinition()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDefinition() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetDateRecomputesMonthRef(t *testing.T) {
	tx := validTx()
	if tx.MonthRef != "2024-01" {
		t.Fatalf("MonthRef = %q, want 2024-01", tx.MonthRef)
	}
	tx.SetDate(time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC))
	if tx.MonthRef != "2024-11" {
		t.Errorf("MonthRef after SetDate = %q, want 2024-11", tx.MonthRef)
	}
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{
			"plain advance",
			time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 2,
			time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			"jan 31 clamps to feb 29 on leap year",
			time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1,
			time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			"jan 31 clamps to feb 28 off leap year",
			time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), 1,
			time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			"year rollover",
			time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC), 3,
			time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonthsClamped(tt.start, tt.months)
			if !got.Equal(tt.want) {
				t.Errorf("AddMonthsClamped(%v, %d) = %v, want %v", tt.start, tt.months, got, tt.want)
			}
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	a := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	if got := MonthsBetween(a, b); got != 3 {
		t.Errorf("MonthsBetween = %d, want 3", got)
	}
	if got := MonthsBetween(b, a); got != -3 {
		t.Errorf("MonthsBetween reversed = %d, want -3", got)
	}
}
