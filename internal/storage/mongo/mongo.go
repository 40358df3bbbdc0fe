// Package mongo implements the TransactionStore on a MongoDB collection,
// the closest analogue of the document database the transaction records
// originally lived in. Batches go through ordered bulk writes.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maicon-romano/previzi/internal/core"
	"github.com/maicon-romano/previzi/internal/storage"
)

const transactionsCollection = "transactions"

// Store implements storage.TransactionStore against a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ storage.TransactionStore = (*Store)(nil)

// Connect dials MongoDB, pings it, and returns a ready store.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// transactionDoc is the BSON shape of a transaction record.
type transactionDoc struct {
	ID               string     `bson:"_id"`
	UserID           string     `bson:"userId"`
	Type             string     `bson:"type"`
	AmountCents      *int64     `bson:"amountCents,omitempty"`
	Category         string     `bson:"category"`
	Description      string     `bson:"description"`
	Source           string     `bson:"source,omitempty"`
	Date             time.Time  `bson:"date"`
	Status           string     `bson:"status"`
	Recurring        bool       `bson:"recurring"`
	IsVariableAmount bool       `bson:"isVariableAmount"`
	RecurringKind    string     `bson:"recurringType,omitempty"`
	RecurringMonths  *int       `bson:"recurringMonths,omitempty"`
	RecurringEndDate *time.Time `bson:"recurringEndDate,omitempty"`
	MonthRef         string     `bson:"monthRef"`
	GroupID          string     `bson:"recurrenceGroupId,omitempty"`
	OriginalID       string     `bson:"originalId,omitempty"`
	IsGenerated      bool       `bson:"isGenerated"`
	ManuallyEdited   bool       `bson:"manuallyEdited"`
}

func toDoc(t core.Transaction) transactionDoc {
	doc := transactionDoc{
		ID:               t.ID,
		UserID:           t.UserID,
		Type:             string(t.Type),
		Category:         t.Category,
		Description:      t.Description,
		Source:           t.Source,
		Date:             t.Date,
		Status:           string(t.Status),
		Recurring:        t.Recurring,
		IsVariableAmount: t.IsVariableAmount,
		RecurringKind:    string(t.RecurringKind),
		RecurringMonths:  t.RecurringMonths,
		RecurringEndDate: t.RecurringEndDate,
		MonthRef:         t.MonthRef,
		GroupID:          t.RecurrenceGroupID,
		OriginalID:       t.OriginalID,
		IsGenerated:      t.IsGenerated,
		ManuallyEdited:   t.ManuallyEdited,
	}
	if t.Amount != nil {
		cents := t.Amount.Cents
		doc.AmountCents = &cents
	}
	return doc
}

func fromDoc(doc transactionDoc) core.Transaction {
	t := core.Transaction{
		ID:                doc.ID,
		UserID:            doc.UserID,
		Type:              core.TransactionType(doc.Type),
		Category:          doc.Category,
		Description:       doc.Description,
		Source:            doc.Source,
		Date:              doc.Date,
		Status:            core.Status(doc.Status),
		Recurring:         doc.Recurring,
		IsVariableAmount:  doc.IsVariableAmount,
		RecurringKind:     core.RecurrenceKind(doc.RecurringKind),
		RecurringMonths:   doc.RecurringMonths,
		RecurringEndDate:  doc.RecurringEndDate,
		MonthRef:          doc.MonthRef,
		RecurrenceGroupID: doc.GroupID,
		OriginalID:        doc.OriginalID,
		IsGenerated:       doc.IsGenerated,
		ManuallyEdited:    doc.ManuallyEdited,
	}
	if doc.AmountCents != nil {
		t.Amount = &core.Money{Cents: *doc.AmountCents}
	}
	return t
}

func (s *Store) collection() *mongo.Collection {
	return s.db.Collection(transactionsCollection)
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]core.Transaction, error) {
	cur, err := s.collection().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	out := make([]core.Transaction, len(docs))
	for i, doc := range docs {
		out[i] = fromDoc(doc)
	}
	return out, nil
}

func (s *Store) GetTransactionsForMonth(ctx context.Context, userID string, year, month int) ([]core.Transaction, error) {
	return s.find(ctx, bson.M{"userId": userID, "monthRef": core.MonthKeyOf(year, month)})
}

func (s *Store) GetAllTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.find(ctx, bson.M{"userId": userID})
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	var doc transactionDoc
	err := s.collection().FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return core.Transaction{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("find transaction: %w", err)
	}
	return fromDoc(doc), nil
}

func (s *Store) ListGroup(ctx context.Context, userID, groupID string) ([]core.Transaction, error) {
	return s.find(ctx, bson.M{"userId": userID, "recurrenceGroupId": groupID})
}

func (s *Store) CreateInstances(ctx context.Context, batch []core.Transaction) ([]string, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	docs := make([]any, len(batch))
	ids := make([]string, len(batch))
	for i, t := range batch {
		docs[i] = toDoc(t)
		ids[i] = t.ID
	}
	// Ordered insert: the first failure aborts the rest of the batch.
	if _, err := s.collection().InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return nil, fmt.Errorf("insert transaction batch: %w", err)
	}
	return ids, nil
}

func (s *Store) UpdateInstances(ctx context.Context, userID string, updates []storage.InstanceUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		set := bson.M{}
		if u.Amount != nil {
			set["amountCents"] = u.Amount.Cents
		}
		if u.Status != nil {
			set["status"] = string(*u.Status)
		}
		if u.Date != nil {
			set["date"] = *u.Date
			set["monthRef"] = core.MonthKey(*u.Date)
		}
		if u.Description != nil {
			set["description"] = *u.Description
		}
		if u.ManuallyEdited != nil {
			set["manuallyEdited"] = *u.ManuallyEdited
		}
		if len(set) == 0 {
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ID, "userId": userID}).
			SetUpdate(bson.M{"$set": set}))
	}
	if len(models) == 0 {
		return nil
	}
	res, err := s.collection().BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("bulk update transactions: %w", err)
	}
	if int(res.MatchedCount) != len(models) {
		return fmt.Errorf("bulk update matched %d of %d: %w", res.MatchedCount, len(models), storage.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteInstances(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.collection().DeleteMany(ctx, bson.M{
		"_id":    bson.M{"$in": ids},
		"userId": userID,
	})
	if err != nil {
		return 0, fmt.Errorf("delete transaction batch: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	raw, err := s.collection().Distinct(ctx, "userId", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct users: %w", err)
	}
	users := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok {
			users = append(users, id)
		}
	}
	return users, nil
}
