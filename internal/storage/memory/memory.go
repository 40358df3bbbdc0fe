// Package memory provides an in-memory TransactionStore used as the
// default backend and as the test double for the materializer and the
// HTTP layer.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/maicon-romano/previzi/internal/core"
	"github.com/maicon-romano/previzi/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	items map[string]core.Transaction // keyed by id
}

var _ storage.TransactionStore = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[string]core.Transaction)}
}

func (s *Store) GetTransactionsForMonth(_ context.Context, userID string, year, month int) ([]core.Transaction, error) {
	key := core.MonthKeyOf(year, month)
	return s.collect(func(t core.Transaction) bool {
		return t.UserID == userID && t.MonthRef == key
	}), nil
}

func (s *Store) GetAllTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	return s.collect(func(t core.Transaction) bool {
		return t.UserID == userID
	}), nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListGroup(_ context.Context, userID, groupID string) ([]core.Transaction, error) {
	return s.collect(func(t core.Transaction) bool {
		return t.UserID == userID && t.RecurrenceGroupID == groupID
	}), nil
}

// CreateInstances validates the whole batch before touching state so the
// write stays all-or-nothing.
func (s *Store) CreateInstances(_ context.Context, batch []core.Transaction) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range batch {
		if t.ID == "" {
			return nil, fmt.Errorf("transaction without id in batch")
		}
		if _, exists := s.items[t.ID]; exists {
			return nil, fmt.Errorf("duplicate transaction id %s", t.ID)
		}
	}
	ids := make([]string, 0, len(batch))
	for _, t := range batch {
		s.items[t.ID] = t
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (s *Store) UpdateInstances(_ context.Context, userID string, updates []storage.InstanceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Verify first, apply second.
	for _, u := range updates {
		t, ok := s.items[u.ID]
		if !ok || t.UserID != userID {
			return fmt.Errorf("update %s: %w", u.ID, storage.ErrNotFound)
		}
	}
	for _, u := range updates {
		t := s.items[u.ID]
		if u.Amount != nil {
			amount := *u.Amount
			t.Amount = &amount
		}
		if u.Status != nil {
			t.Status = *u.Status
		}
		if u.Date != nil {
			t.SetDate(*u.Date)
		}
		if u.Description != nil {
			t.Description = *u.Description
		}
		if u.ManuallyEdited != nil {
			t.ManuallyEdited = *u.ManuallyEdited
		}
		s.items[u.ID] = t
	}
	return nil
}

func (s *Store) DeleteInstances(_ context.Context, userID string, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if t, ok := s.items[id]; ok && t.UserID == userID {
			delete(s.items, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]struct{}{}
	var users []string
	for _, t := range s.items {
		if _, ok := seen[t.UserID]; ok {
			continue
		}
		seen[t.UserID] = struct{}{}
		users = append(users, t.UserID)
	}
	sort.Strings(users)
	return users, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) collect(match func(core.Transaction) bool) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Transaction
	for _, t := range s.items {
		if match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
