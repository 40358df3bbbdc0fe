// Package scenario loads simulated what-if items from YAML files so the
// CLI can run projections without composing JSON by hand.
package scenario

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maicon-romano/previzi/internal/core"
)

// File is the YAML document shape: a list of simulated items plus optional
// projection defaults.
type File struct {
	PeriodMonths    int    `yaml:"periodMonths,omitempty"`
	StartingBalance string `yaml:"startingBalance,omitempty"`
	Items           []Item `yaml:"items"`
}

// Item is one simulated entry. Amounts are decimal strings and dates are
// YYYY-MM-DD; end is optional and empty means open-ended.
type Item struct {
	ID          string `yaml:"id"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Amount      string `yaml:"amount"`
	Start       string `yaml:"start"`
	End         string `yaml:"end,omitempty"`
	Enabled     *bool  `yaml:"enabled,omitempty"`
}

// Load reads and validates a scenario file.
func Load(path string) (*File, []core.SimulatedItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read scenario file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, nil, fmt.Errorf("parse scenario file: %w", err)
	}

	items := make([]core.SimulatedItem, 0, len(f.Items))
	for i, it := range f.Items {
		item, err := it.toSimulatedItem(i)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}
	return &f, items, nil
}

func (it Item) toSimulatedItem(index int) (core.SimulatedItem, error) {
	kind := core.TransactionType(it.Type)
	if kind != core.Income && kind != core.Expense {
		return core.SimulatedItem{}, fmt.Errorf("item %d: %w: %q", index, core.ErrInvalidType, it.Type)
	}

	cents, err := core.ParseDecimalToCents(it.Amount)
	if err != nil {
		return core.SimulatedItem{}, fmt.Errorf("item %d: %w: %q", index, err, it.Amount)
	}

	start, err := time.Parse("2006-01-02", it.Start)
	if err != nil {
		return core.SimulatedItem{}, fmt.Errorf("item %d: %w: %q", index, core.ErrInvalidDate, it.Start)
	}

	id := it.ID
	if id == "" {
		id = fmt.Sprintf("item-%d", index)
	}

	// Items are enabled unless the file says otherwise.
	enabled := true
	if it.Enabled != nil {
		enabled = *it.Enabled
	}

	item := core.SimulatedItem{
		ID:          id,
		Type:        kind,
		Description: it.Description,
		Amount:      core.Money{Cents: cents},
		Start:       start,
		Enabled:     enabled,
	}
	if it.End != "" {
		end, err := time.Parse("2006-01-02", it.End)
		if err != nil {
			return core.SimulatedItem{}, fmt.Errorf("item %d: %w: %q", index, core.ErrInvalidDate, it.End)
		}
		item.End = &end
	}
	return item, nil
}
