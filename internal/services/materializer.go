// Package services holds the store-touching orchestration: the recurrence
// materializer and the cached projection service.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maicon-romano/previzi/internal/amqp"
	"github.com/maicon-romano/previzi/internal/core"
	"github.com/maicon-romano/previzi/internal/storage"
)

// Materializer maintains the concrete instances implied by recurring
// transaction definitions and applies bulk operations across a series.
// Every operation issues exactly one batch write, so partial application
// is impossible as long as the store honors its atomicity contract.
//
// Concurrent operations on the same recurrence group are not sequenced
// here; callers that allow them must serialize per group.
type Materializer struct {
	store  storage.TransactionStore
	events *amqp.Publisher // optional
}

func NewMaterializer(store storage.TransactionStore, events *amqp.Publisher) *Materializer {
	return &Materializer{store: store, events: events}
}

// Materialize validates a recurring definition and persists its instances.
// Fixed series get the origin plus one generated instance per subsequent
// month, bounded by the month count and the end date (whichever comes
// first, end-date month inclusive). Infinite series persist only the
// origin; later months materialize on demand via EnsureMonth.
// Returns the full persisted batch, origin first.
func (m *Materializer) Materialize(ctx context.Context, def core.Transaction) ([]core.Transaction, error) {
	if err := def.ValidateDefinition(); err != nil {
		return nil, err
	}

	origin := def
	if origin.ID == "" {
		origin.ID = uuid.NewString()
	}
	if origin.RecurrenceGroupID == "" {
		origin.RecurrenceGroupID = uuid.NewString()
	}
	origin.SetDate(def.Date)
	origin.IsGenerated = false
	origin.OriginalID = ""

	batch := []core.Transaction{origin}
	if origin.RecurringKind == core.Fixed {
		batch = append(batch, generateFixed(origin)...)
	}

	ids, err := m.store.CreateInstances(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("persist series batch: %w", err)
	}

	slog.InfoContext(ctx, "Recurring series materialized",
		"group_id", origin.RecurrenceGroupID,
		"kind", origin.RecurringKind,
		"instances", len(ids))
	m.publish(ctx, amqp.EventSeriesMaterialized, origin.UserID, origin.RecurrenceGroupID, len(ids))
	return batch, nil
}

// generateFixed expands a fixed-recurrence origin into its future
// instances. Dates advance by whole calendar months with day-of-month
// clamping, and monthRef follows each instance's own date.
func generateFixed(origin core.Transaction) []core.Transaction {
	months := -1
	if origin.RecurringMonths != nil {
		months = *origin.RecurringMonths
	}
	if origin.RecurringEndDate != nil {
		byDate := core.MonthsBetween(origin.Date, *origin.RecurringEndDate)
		if byDate < 0 {
			byDate = 0
		}
		if months < 0 || byDate < months {
			months = byDate
		}
	}

	var out []core.Transaction
	for i := 1; i <= months; i++ {
		inst := origin
		inst.ID = uuid.NewString()
		inst.Status = core.Pending
		inst.IsGenerated = true
		inst.OriginalID = origin.ID
		inst.ManuallyEdited = false
		if origin.IsVariableAmount {
			inst.Amount = nil
		} else {
			amount := *origin.Amount
			inst.Amount = &amount
		}
		inst.SetDate(core.AddMonthsClamped(origin.Date, i))
		out = append(out, inst)
	}
	return out
}

// EnsureMonth materializes, in one batch, the missing instances of every
// infinite series that should have an occurrence in the given month.
// Months before a series' origin are never filled. Returns how many
// instances were created (0 when the month was already complete).
func (m *Materializer) EnsureMonth(ctx context.Context, userID string, year, month int) (int, error) {
	all, err := m.store.GetAllTransactions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load transactions: %w", err)
	}

	targetKey := core.MonthKeyOf(year, month)
	covered := make(map[string]bool) // group id -> has an instance in target month
	var bases []core.Transaction
	for _, tx := range all {
		if tx.RecurrenceGroupID == "" {
			continue
		}
		if tx.MonthRef == targetKey {
			covered[tx.RecurrenceGroupID] = true
		}
		if tx.Recurring && tx.RecurringKind == core.Infinite && !tx.IsGenerated {
			bases = append(bases, tx)
		}
	}

	target := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	var batch []core.Transaction
	for _, base := range bases {
		if covered[base.RecurrenceGroupID] {
			continue
		}
		offset := core.MonthsBetween(base.Date, target)
		if offset <= 0 {
			continue
		}
		inst := base
		inst.ID = uuid.NewString()
		inst.Status = core.Pending
		inst.IsGenerated = true
		inst.OriginalID = base.ID
		inst.ManuallyEdited = false
		if base.IsVariableAmount {
			inst.Amount = nil
		} else if base.Amount != nil {
			amount := *base.Amount
			inst.Amount = &amount
		}
		inst.SetDate(core.AddMonthsClamped(base.Date, offset))
		batch = append(batch, inst)
	}

	if len(batch) == 0 {
		return 0, nil
	}
	if _, err := m.store.CreateInstances(ctx, batch); err != nil {
		return 0, fmt.Errorf("persist on-demand instances: %w", err)
	}

	slog.InfoContext(ctx, "Infinite series materialized on demand",
		"user_id", userID, "month", targetKey, "instances", len(batch))
	return len(batch), nil
}

// UpdateBaseValue propagates a new base amount to every instance of a
// series dated in now's month or later. Paid instances are never touched,
// nor are past months: realized history stays immutable. With
// overwriteEdited false, manually edited instances (and instances whose
// amount already drifted from the prior base) are left alone. Returns the
// number of instances updated.
func (m *Materializer) UpdateBaseValue(ctx context.Context, userID, groupID string, newAmount core.Money, overwriteEdited bool, now time.Time) (int, error) {
	if err := newAmount.Validate(); err != nil {
		return 0, err
	}
	group, err := m.store.ListGroup(ctx, userID, groupID)
	if err != nil {
		return 0, fmt.Errorf("load recurrence group: %w", err)
	}
	if len(group) == 0 {
		return 0, storage.ErrNotFound
	}

	var priorBase *core.Money
	for _, tx := range group {
		if !tx.IsGenerated {
			priorBase = tx.Amount
			break
		}
	}

	nowKey := core.MonthKey(now)
	var updates []storage.InstanceUpdate
	for _, tx := range group {
		if tx.MonthRef < nowKey {
			continue
		}
		if tx.Status == core.Paid {
			continue
		}
		if !overwriteEdited && isEdited(tx, priorBase) {
			continue
		}
		amount := newAmount
		updates = append(updates, storage.InstanceUpdate{ID: tx.ID, Amount: &amount})
	}

	if len(updates) == 0 {
		return 0, nil
	}
	if err := m.store.UpdateInstances(ctx, userID, updates); err != nil {
		return 0, fmt.Errorf("apply base value update: %w", err)
	}

	slog.InfoContext(ctx, "Series base value updated",
		"group_id", groupID,
		"new_amount_cents", newAmount.Cents,
		"overwrite_edited", overwriteEdited,
		"updated", len(updates))
	m.publish(ctx, amqp.EventSeriesBaseUpdated, userID, groupID, len(updates))
	return len(updates), nil
}

// isEdited reports whether an instance's amount was set by hand. The
// explicit flag is authoritative; amounts drifted from the prior base are
// treated as edited as well in case the flag predates the record.
func isEdited(tx core.Transaction, priorBase *core.Money) bool {
	if tx.ManuallyEdited {
		return true
	}
	if tx.Amount == nil || priorBase == nil {
		return false
	}
	return tx.Amount.Cents != priorBase.Cents
}

// DeleteScoped removes one instance, the instance plus its future
// siblings, or the entire series, depending on scope. ScopeAllFuture
// never touches an instance dated strictly before now's month. Returns
// the number of deleted instances.
func (m *Materializer) DeleteScoped(ctx context.Context, userID, id string, scope core.DeleteScope, now time.Time) (int, error) {
	if err := core.ValidateScope(scope); err != nil {
		return 0, err
	}
	tx, err := m.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return 0, fmt.Errorf("load transaction: %w", err)
	}

	ids := []string{tx.ID}
	if scope != core.ScopeCurrent && tx.RecurrenceGroupID != "" {
		group, err := m.store.ListGroup(ctx, userID, tx.RecurrenceGroupID)
		if err != nil {
			return 0, fmt.Errorf("load recurrence group: %w", err)
		}
		nowKey := core.MonthKey(now)
		ids = ids[:0]
		for _, member := range group {
			if scope == core.ScopeAllFuture && member.MonthRef < nowKey {
				continue
			}
			ids = append(ids, member.ID)
		}
	}

	deleted, err := m.store.DeleteInstances(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete instances: %w", err)
	}

	slog.InfoContext(ctx, "Transactions deleted",
		"scope", scope, "group_id", tx.RecurrenceGroupID, "deleted", deleted)
	m.publish(ctx, amqp.EventSeriesDeleted, userID, tx.RecurrenceGroupID, deleted)
	return deleted, nil
}

// publish is nil-safe and never fails the originating write: event
// delivery is advisory.
func (m *Materializer) publish(ctx context.Context, event, userID, groupID string, count int) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishSeriesEvent(ctx, event, userID, groupID, count); err != nil {
		slog.ErrorContext(ctx, "Failed to publish series event",
			"event", event, "group_id", groupID, "error", err)
	}
}
