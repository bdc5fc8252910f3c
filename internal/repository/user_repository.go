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

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// UserStore is the persistence contract the auth core depends on. The
// guard resolves identities through it on every request, so implementations
// must be safe for concurrent use.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id string) error
}

// UserRepo implements UserStore on MySQL.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// NormalizeEmail lower-cases and trims an address; every email entering the
// store goes through this so the unique index sees one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts the user, assigning a fresh uuid and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = NormalizeEmail(u.Email)
	now := time.Now().UTC().Truncate(time.Second)
	u.CreatedAt = now
	u.UpdatedAt = now

	const q = `INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT id, name, email, password_hash, created_at, updated_at
	           FROM users WHERE email = ? LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, NormalizeEmail(email)))
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT id, name, email, password_hash, created_at, updated_at
	           FROM users WHERE id = ? LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// Update persists name, email and password hash changes.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	u.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	const q = `UPDATE users SET name = ?, email = ?, password_hash = ?, updated_at = ?
	           WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, u.Name, u.Email, u.PasswordHash, u.UpdatedAt, u.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// Delete removes the user; categories and transactions cascade in the
// schema.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM users WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) scanOne(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
