// Package storage defines the Transaction Store port and its SQLite
// implementation. Every batch write is atomic: either all records in the
// batch are applied or none are.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/maicon-romano/previzi/internal/core"
)

// ErrNotFound is returned when a transaction id does not exist for the user.
var ErrNotFound = errors.New("transaction not found")

// InstanceUpdate carries partial fields for one instance. Nil fields are
// left unchanged.
type InstanceUpdate struct {
	ID             string
	Amount         *core.Money
	Status         *core.Status
	Date           *time.Time
	Description    *string
	ManuallyEdited *bool
}

// TransactionStore is the document-collection boundary of the engine. The
// core receives and returns plain transaction records and never sees how
// they are persisted.
type TransactionStore interface {
	// GetTransactionsForMonth returns the user's transactions whose monthRef
	// matches the given year and 1-based month, ordered by date.
	GetTransactionsForMonth(ctx context.Context, userID string, year, month int) ([]core.Transaction, error)

	// GetAllTransactions returns every transaction for the user, ordered by date.
	GetAllTransactions(ctx context.Context, userID string) ([]core.Transaction, error)

	// GetTransaction returns a single transaction or ErrNotFound.
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)

	// ListGroup returns every instance sharing a recurrence group id,
	// ordered by date.
	ListGroup(ctx context.Context, userID, groupID string) ([]core.Transaction, error)

	// CreateInstances persists a batch atomically and returns the ids in
	// batch order.
	CreateInstances(ctx context.Context, batch []core.Transaction) ([]string, error)

	// UpdateInstances applies a batch of partial updates atomically.
	UpdateInstances(ctx context.Context, userID string, updates []InstanceUpdate) error

	// DeleteInstances removes a batch of ids atomically and returns how
	// many records were actually deleted.
	DeleteInstances(ctx context.Context, userID string, ids []string) (int, error)

	// ListUsers returns the distinct user ids present in the store.
	ListUsers(ctx context.Context) ([]string, error)

	Close() error
}
