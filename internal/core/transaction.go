package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// TransactionType distinguishes money coming in from money going out.
	TransactionType string

	// Status marks whether a transaction has actually been settled.
	Status string

	// RecurrenceKind selects how far a recurring series extends.
	RecurrenceKind string

	// DeleteScope selects how much of a recurring series a delete touches.
	DeleteScope string
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Paid    Status = "paid"
	Pending Status = "pending"

	// Infinite series have no end; instances are materialized on demand
	// when a month view asks for them.
	Infinite RecurrenceKind = "infinite"
	// Fixed series stop after a month count or an explicit end date.
	Fixed RecurrenceKind = "fixed"

	ScopeCurrent      DeleteScope = "current"
	ScopeAllFuture    DeleteScope = "all_future"
	ScopeAllInstances DeleteScope = "all_instances"
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidType            = errors.New("invalid transaction type")
	ErrInvalidStatus          = errors.New("invalid transaction status")
	ErrEmptyDescription       = errors.New("empty description")
	ErrEmptyCategory          = errors.New("empty category")
	ErrNotRecurring           = errors.New("transaction is not recurring")
	ErrUnknownRecurrenceKind  = errors.New("unknown recurrence kind")
	ErrMissingRecurrenceBound = errors.New("fixed recurrence needs a month count or an end date")
	ErrUnknownDeleteScope     = errors.New("unknown delete scope")
	ErrInvalidPeriod          = errors.New("invalid projection period")
)

// Transaction is the atomic financial event. Amount is a pointer so that a
// recurring-variable occurrence whose value has not been set yet can carry
// no amount at all; such instances contribute zero to every sum.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Type        TransactionType `json:"type"`
	Amount      *Money          `json:"amount,omitempty"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Source      string          `json:"source,omitempty"`
	Date        time.Time       `json:"date"`
	Status      Status          `json:"status"`

	Recurring        bool           `json:"recurring"`
	IsVariableAmount bool           `json:"isVariableAmount"`
	RecurringKind    RecurrenceKind `json:"recurringType,omitempty"`
	RecurringMonths  *int           `json:"recurringMonths,omitempty"`
	RecurringEndDate *time.Time     `json:"recurringEndDate,omitempty"`

	// MonthRef buckets the transaction by calendar month ("YYYY-MM").
	// It always equals MonthKey(Date); SetDate keeps it in sync.
	MonthRef string `json:"monthRef"`

	RecurrenceGroupID string `json:"recurrenceGroupId,omitempty"`
	OriginalID        string `json:"originalId,omitempty"`
	IsGenerated       bool   `json:"isGenerated"`
	ManuallyEdited    bool   `json:"manuallyEdited"`
}

// MonthKey returns the "YYYY-MM" bucket for a date.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthKeyOf returns the bucket for a year and 1-based month.
func MonthKeyOf(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// SetDate assigns a new occurrence date and recomputes MonthRef.
func (t *Transaction) SetDate(d time.Time) {
	t.Date = d
	t.MonthRef = MonthKey(d)
}

// HasAmount reports whether the occurrence amount has been set.
func (t Transaction) HasAmount() bool {
	return t.Amount != nil
}

// Validate checks the base invariants of a transaction record. An absent
// amount is only legal for recurring-variable instances.
func (t Transaction) Validate() error {
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	switch t.Status {
	case Paid, Pending:
	default:
		return ErrInvalidStatus
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount == nil {
		if !t.Recurring || !t.IsVariableAmount {
			return ErrInvalidAmount
		}
		return nil
	}
	return t.Amount.Validate()
}

// ValidateDefinition checks a transaction intended as a recurring series
// definition. It applies Validate plus the recurrence-specific rules: a
// defined positive amount unless the series is variable, and at least one
// bound for fixed recurrence.
func (t Transaction) ValidateDefinition() error {
	if !t.Recurring {
		return ErrNotRecurring
	}
	if err := t.Validate(); err != nil {
		return err
	}
	switch t.RecurringKind {
	case Infinite:
	case Fixed:
		if t.RecurringMonths == nil && t.RecurringEndDate == nil {
			return ErrMissingRecurrenceBound
		}
		if t.RecurringMonths != nil && *t.RecurringMonths < 0 {
			return ErrMissingRecurrenceBound
		}
	default:
		return ErrUnknownRecurrenceKind
	}
	return nil
}

// ValidateScope checks a delete scope value.
func ValidateScope(s DeleteScope) error {
	switch s {
	case ScopeCurrent, ScopeAllFuture, ScopeAllInstances:
		return nil
	default:
		return ErrUnknownDeleteScope
	}
}

// AddMonthsClamped advances a date by whole calendar months, preserving the
// day of month subject to month-length clamping (Jan 31 + 1 month = Feb 28
// or 29, not Mar 2/3).
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// MonthsBetween counts whole month steps from a's calendar month to b's,
// ignoring days. It is negative when b precedes a.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
