package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maicon-romano/previzi/internal/core"

	_ "modernc.org/sqlite"
)

const selectColumns = `id, user_id, type, amount_cents, category, description, source,
	date, status, recurring, is_variable_amount, recurring_kind, recurring_months,
	recurring_end_date, month_ref, group_id, original_id, is_generated, manually_edited`

// SQLiteRepository implements TransactionStore on a local SQLite file.
// Batch operations run inside a single SQL transaction so they are
// all-or-nothing from the caller's perspective.
type SQLiteRepository struct {
	db *sql.DB
}

var _ TransactionStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) GetTransactionsForMonth(ctx context.Context, userID string, year, month int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM transactions WHERE user_id = ? AND month_ref = ? ORDER BY date, id`,
		userID, core.MonthKeyOf(year, month))
	if err != nil {
		return nil, fmt.Errorf("query month transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) GetAllTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM transactions WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query all transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("query transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) ListGroup(ctx context.Context, userID, groupID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM transactions WHERE user_id = ? AND group_id = ? ORDER BY date, id`,
		userID, groupID)
	if err != nil {
		return nil, fmt.Errorf("query recurrence group: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) CreateInstances(ctx context.Context, batch []core.Transaction) ([]string, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create batch: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(batch))
	for _, t := range batch {
		var amount any
		if t.Amount != nil {
			amount = t.Amount.Cents
		}
		var months any
		if t.RecurringMonths != nil {
			months = *t.RecurringMonths
		}
		var endDate any
		if t.RecurringEndDate != nil {
			endDate = t.RecurringEndDate.Format(time.RFC3339)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, user_id, type, amount_cents, category, description,
				source, date, status, recurring, is_variable_amount, recurring_kind,
				recurring_months, recurring_end_date, month_ref, group_id, original_id,
				is_generated, manually_edited)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.UserID, string(t.Type), amount, t.Category, t.Description,
			t.Source, t.Date.Format(time.RFC3339), string(t.Status),
			boolToInt(t.Recurring), boolToInt(t.IsVariableAmount), string(t.RecurringKind),
			months, endDate, t.MonthRef, t.RecurrenceGroupID, t.OriginalID,
			boolToInt(t.IsGenerated), boolToInt(t.ManuallyEdited))
		if err != nil {
			return nil, fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
		ids = append(ids, t.ID)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create batch: %w", err)
	}

	slog.InfoContext(ctx, "Transaction batch persisted", "count", len(ids))
	return ids, nil
}

func (r *SQLiteRepository) UpdateInstances(ctx context.Context, userID string, updates []InstanceUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update batch: %w", err)
	}
	defer tx.Rollback()

	for _, u := range updates {
		set := ""
		args := []any{}
		appendSet := func(col string, v any) {
			if set != "" {
				set += ", "
			}
			set += col + " = ?"
			args = append(args, v)
		}
		if u.Amount != nil {
			appendSet("amount_cents", u.Amount.Cents)
		}
		if u.Status != nil {
			appendSet("status", string(*u.Status))
		}
		if u.Date != nil {
			appendSet("date", u.Date.Format(time.RFC3339))
			appendSet("month_ref", core.MonthKey(*u.Date))
		}
		if u.Description != nil {
			appendSet("description", *u.Description)
		}
		if u.ManuallyEdited != nil {
			appendSet("manually_edited", boolToInt(*u.ManuallyEdited))
		}
		if set == "" {
			continue
		}
		args = append(args, userID, u.ID)
		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET `+set+` WHERE user_id = ? AND id = ?`, args...)
		if err != nil {
			return fmt.Errorf("update transaction %s: %w", u.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("update transaction %s: %w", u.ID, ErrNotFound)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update batch: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteInstances(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete batch: %w", err)
	}
	defer tx.Rollback()

	deleted := 0
	for _, id := range ids {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
		if err != nil {
			return 0, fmt.Errorf("delete transaction %s: %w", id, err)
		}
		n, _ := res.RowsAffected()
		deleted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete batch: %w", err)
	}

	slog.InfoContext(ctx, "Transaction batch deleted", "requested", len(ids), "deleted", deleted)
	return deleted, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM transactions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t              core.Transaction
		kind, status   string
		txType         string
		amount, months sql.NullInt64
		date           string
		endDate        sql.NullString
		recurring      int
		variable       int
		generated      int
		edited         int
	)
	err := row.Scan(&t.ID, &t.UserID, &txType, &amount, &t.Category, &t.Description,
		&t.Source, &date, &status, &recurring, &variable, &kind, &months,
		&endDate, &t.MonthRef, &t.RecurrenceGroupID, &t.OriginalID, &generated, &edited)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(txType)
	t.Status = core.Status(status)
	t.RecurringKind = core.RecurrenceKind(kind)
	t.Recurring = recurring != 0
	t.IsVariableAmount = variable != 0
	t.IsGenerated = generated != 0
	t.ManuallyEdited = edited != 0
	if amount.Valid {
		t.Amount = &core.Money{Cents: amount.Int64}
	}
	if months.Valid {
		m := int(months.Int64)
		t.RecurringMonths = &m
	}
	if t.Date, err = time.Parse(time.RFC3339, date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	if endDate.Valid {
		ed, err := time.Parse(time.RFC3339, endDate.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse end date %q: %w", endDate.String, err)
		}
		t.RecurringEndDate = &ed
	}
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
