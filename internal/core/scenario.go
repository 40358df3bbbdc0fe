package core

import (
	"fmt"
	"time"
)

// Labels carried by synthetic transactions so downstream views can tell
// simulated entries apart from real ones.
const (
	SimulatedCategory = "simulated"
	SimulatedSource   = "simulation"
)

// SimulatedItem is an ephemeral what-if entry. It lives only inside a
// projection request and is never persisted.
type SimulatedItem struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Amount      Money           `json:"amount"`
	Start       time.Time       `json:"start"`
	// End is nil for open-ended ("infinite") items.
	End     *time.Time `json:"end,omitempty"`
	Enabled bool       `json:"enabled"`
}

// MapScenarios expands enabled simulated items into synthetic transactions,
// one per projection month whose representative date falls inside the item's
// [Start, End] window. The representative date is day 15, mid-month, so
// month-length edge cases never shift the bucket. Pure: no side effects,
// identical inputs yield identical output.
func MapScenarios(items []SimulatedItem, periodMonths int, now time.Time) []Transaction {
	var out []Transaction
	for offset := 0; offset < periodMonths; offset++ {
		ref := time.Date(now.Year(), now.Month()+time.Month(offset), 15, 0, 0, 0, 0, time.UTC)
		for _, item := range items {
			if !item.Enabled {
				continue
			}
			if ref.Before(item.Start) {
				continue
			}
			if item.End != nil && ref.After(*item.End) {
				continue
			}
			amount := item.Amount
			tx := Transaction{
				ID:          fmt.Sprintf("sim-%s-%d", item.ID, offset),
				Type:        item.Type,
				Amount:      &amount,
				Category:    SimulatedCategory,
				Description: item.Description,
				Source:      SimulatedSource,
				Status:      Pending,
			}
			tx.SetDate(ref)
			out = append(out, tx)
		}
	}
	return out
}
