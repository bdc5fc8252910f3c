package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/personal-finance-api/internal/model"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionFilter narrows List results. Nil/zero fields are skipped.
type TransactionFilter struct {
	From       *time.Time // occurred_at >= From
	To         *time.Time // occurred_at <= To
	Type       string     // income|expense
	CategoryID string
	Limit      int // defaults to 50, capped at 200
	Offset     int
}

// TransactionStore is the persistence contract for ledger entries. Scoping
// rules match CategoryStore: everything is filtered by the owning user.
type TransactionStore interface {
	List(ctx context.Context, userID string, f TransactionFilter) ([]model.Transaction, int64, error)
	FindByID(ctx context.Context, id, userID string) (*model.Transaction, error)
	Create(ctx context.Context, t *model.Transaction) error
	CreateBatch(ctx context.Context, txs []model.Transaction) error
	Update(ctx context.Context, t *model.Transaction) error
	Delete(ctx context.Context, id, userID string) error
	SummarizeByCategory(ctx context.Context, userID string, from, to time.Time) ([]model.CategorySummary, error)
}

// TransactionRepo implements TransactionStore on MySQL.
type TransactionRepo struct{ db *sql.DB }

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionCols = `id, user_id, category_id, type, title, note, amount_cents, occurred_at, created_at, updated_at`

// List returns a filtered page of the user's transactions plus the total
// match count for pagination.
func (r *TransactionRepo) List(ctx context.Context, userID string, f TransactionFilter) ([]model.Transaction, int64, error) {
	where := []string{"user_id = ?"}
	args := []interface{}{userID}

	if f.From != nil {
		where = append(where, "occurred_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "occurred_at <= ?")
		args = append(args, *f.To)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*) FROM transactions WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	listSQL := `SELECT ` + transactionCols + ` FROM transactions WHERE ` + cond +
		` ORDER BY occurred_at DESC, created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// FindByID fetches one transaction owned by the user.
func (r *TransactionRepo) FindByID(ctx context.Context, id, userID string) (*model.Transaction, error) {
	const q = `SELECT ` + transactionCols + ` FROM transactions
	           WHERE id = ? AND user_id = ? LIMIT 1`
	row := r.db.QueryRowContext(ctx, q, id, userID)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts the transaction, assigning a fresh uuid and timestamps.
func (r *TransactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	prepareInsert(t)
	const q = `INSERT INTO transactions (` + transactionCols + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		t.ID, t.UserID, t.CategoryID, t.Type, t.Title, t.Note,
		t.AmountCents, t.OccurredAt, t.CreatedAt, t.UpdatedAt)
	return err
}

// CreateBatch inserts all rows inside one transaction so a CSV import is
// all-or-nothing.
func (r *TransactionRepo) CreateBatch(ctx context.Context, txs []model.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `INSERT INTO transactions (` + transactionCols + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i := range txs {
		t := &txs[i]
		prepareInsert(t)
		if _, err := tx.ExecContext(ctx, q,
			t.ID, t.UserID, t.CategoryID, t.Type, t.Title, t.Note,
			t.AmountCents, t.OccurredAt, t.CreatedAt, t.UpdatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Update rewrites the mutable fields of a transaction owned by the user.
func (r *TransactionRepo) Update(ctx context.Context, t *model.Transaction) error {
	t.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	const q = `UPDATE transactions
	           SET category_id = ?, type = ?, title = ?, note = ?, amount_cents = ?, occurred_at = ?, updated_at = ?
	           WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, q,
		t.CategoryID, t.Type, t.Title, t.Note, t.AmountCents, t.OccurredAt, t.UpdatedAt,
		t.ID, t.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// Delete removes a transaction owned by the user.
func (r *TransactionRepo) Delete(ctx context.Context, id, userID string) error {
	const q = `DELETE FROM transactions WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// SummarizeByCategory aggregates count and total cents per category and
// type over the period. Uncategorized entries group under a NULL id.
func (r *TransactionRepo) SummarizeByCategory(ctx context.Context, userID string, from, to time.Time) ([]model.CategorySummary, error) {
	const q = `SELECT t.category_id, COALESCE(c.name, 'Uncategorized') AS category_name,
	                  t.type, COUNT(*), SUM(t.amount_cents)
	           FROM transactions t
	           LEFT JOIN categories c ON c.id = t.category_id
	           WHERE t.user_id = ? AND t.occurred_at >= ? AND t.occurred_at <= ?
	           GROUP BY t.category_id, category_name, t.type
	           ORDER BY category_name, t.type`
	rows, err := r.db.QueryContext(ctx, q, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CategorySummary{}
	for rows.Next() {
		var (
			s     model.CategorySummary
			catID sql.NullString
		)
		if err := rows.Scan(&catID, &s.CategoryName, &s.Kind, &s.Count, &s.TotalCents); err != nil {
			return nil, err
		}
		if catID.Valid {
			s.CategoryID = &catID.String
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var (
		t     model.Transaction
		catID sql.NullString
	)
	err := row.Scan(&t.ID, &t.UserID, &catID, &t.Type, &t.Title, &t.Note,
		&t.AmountCents, &t.OccurredAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Transaction{}, err
	}
	if catID.Valid {
		t.CategoryID = &catID.String
	}
	return t, nil
}

func prepareInsert(t *model.Transaction) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	t.CreatedAt = now
	t.UpdatedAt = now
}
