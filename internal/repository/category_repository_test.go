package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/personal-finance-api/internal/model"
)

func categoryColumns() []string {
	return []string{"id", "user_id", "name", "kind", "created_at", "updated_at"}
}

func TestCategoryRepo_ListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryRepo(db)

	now := time.Now().UTC().Truncate(time.Second)
	rows := sqlmock.NewRows(categoryColumns()).
		AddRow("c-1", "u-1", "Groceries", model.KindExpense, now, now).
		AddRow("c-2", "u-1", "Salary", model.KindIncome, now, now)
	mock.ExpectQuery("SELECT (.+) FROM categories WHERE user_id").
		WithArgs("u-1").
		WillReturnRows(rows)

	cats, err := repo.ListByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, cats, 2)
	require.Equal(t, "Groceries", cats[0].Name)
	require.Equal(t, model.KindIncome, cats[1].Kind)
}

func TestCategoryRepo_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM categories WHERE id").
		WithArgs("c-x", "u-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "c-x", "u-1")
	require.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryRepo_Create_DuplicateName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryRepo(db)

	mock.ExpectExec("INSERT INTO categories").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &model.Category{UserID: "u-1", Name: "Groceries", Kind: model.KindExpense})
	require.ErrorIs(t, err, ErrCategoryExists)
}

func TestCategoryRepo_CreateDefaults(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryRepo(db)

	want := int64(len(model.DefaultCategories()))
	mock.ExpectExec("INSERT INTO categories").
		WillReturnResult(sqlmock.NewResult(0, want))

	require.NoError(t, repo.CreateDefaults(context.Background(), "u-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepo_Update_NotOwned(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryRepo(db)

	// Zero affected rows means missing or owned by someone else.
	mock.ExpectExec("UPDATE categories SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.Category{ID: "c-1", UserID: "intruder", Name: "X", Kind: model.KindExpense})
	require.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryRepo_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryRepo(db)

	mock.ExpectExec("DELETE FROM categories WHERE id").
		WithArgs("c-1", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "c-1", "u-1"))
}
