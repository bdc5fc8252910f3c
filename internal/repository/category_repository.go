package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/personal-finance-api/internal/model"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category name already exists")
)

// CategoryStore is the persistence contract for categories. All reads and
// writes are scoped to the owning user; a missing row and a row owned by
// someone else are indistinguishable to callers.
type CategoryStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.Category, error)
	FindByID(ctx context.Context, id, userID string) (*model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	CreateDefaults(ctx context.Context, userID string) error
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id, userID string) error
}

// CategoryRepo implements CategoryStore on MySQL.
type CategoryRepo struct{ db *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// ListByUser returns the user's categories ordered by name.
func (r *CategoryRepo) ListByUser(ctx context.Context, userID string) ([]model.Category, error) {
	const q = `SELECT id, user_id, name, kind, created_at, updated_at
	           FROM categories WHERE user_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindByID fetches one category owned by the user.
func (r *CategoryRepo) FindByID(ctx context.Context, id, userID string) (*model.Category, error) {
	const q = `SELECT id, user_id, name, kind, created_at, updated_at
	           FROM categories WHERE id = ? AND user_id = ? LIMIT 1`
	var c model.Category
	err := r.db.QueryRowContext(ctx, q, id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts the category, assigning a fresh uuid and timestamps.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	c.CreatedAt = now
	c.UpdatedAt = now

	const q = `INSERT INTO categories (id, user_id, name, kind, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, c.ID, c.UserID, c.Name, c.Kind, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrCategoryExists
		}
		return err
	}
	return nil
}

// CreateDefaults seeds the starter categories for a freshly registered
// user in a single statement.
func (r *CategoryRepo) CreateDefaults(ctx context.Context, userID string) error {
	defaults := model.DefaultCategories()
	now := time.Now().UTC().Truncate(time.Second)

	query := `INSERT INTO categories (id, user_id, name, kind, created_at, updated_at) VALUES `
	args := make([]interface{}, 0, len(defaults)*6)
	for i, c := range defaults {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, uuid.NewString(), userID, c.Name, c.Kind, now, now)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Update renames or re-kinds a category owned by the user.
func (r *CategoryRepo) Update(ctx context.Context, c *model.Category) error {
	c.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	const q = `UPDATE categories SET name = ?, kind = ?, updated_at = ?
	           WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, q, c.Name, c.Kind, c.UpdatedAt, c.ID, c.UserID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrCategoryExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// Delete removes a category owned by the user. Transactions that pointed
// at it keep a NULL category via the schema's ON DELETE SET NULL.
func (r *CategoryRepo) Delete(ctx context.Context, id, userID string) error {
	const q = `DELETE FROM categories WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
