package handler

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/personal-finance-api/internal/model"
	"github.com/iliyamo/personal-finance-api/internal/repository"
)

// In-memory store fakes. Each honors the sentinel-error contract of its
// repository so handlers can be exercised without a database.

type fakeUserStore struct {
	users map[string]*model.User // by id
	err   error                  // forced error for every call
	seq   int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}}
}

func (f *fakeUserStore) add(u model.User) *model.User {
	if u.ID == "" {
		f.seq++
		u.ID = fmt.Sprintf("u-%d", f.seq)
	}
	f.users[u.ID] = &u
	return &u
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) Create(ctx context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	f.seq++
	u.ID = fmt.Sprintf("u-%d", f.seq)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) Update(ctx context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	for id, existing := range f.users {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	cp := *u
	cp.UpdatedAt = time.Now().UTC()
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeCategoryStore struct {
	cats    map[string]*model.Category // by id
	err     error
	seedErr error
	seeded  []string // user ids passed to CreateDefaults
	seq     int
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{cats: map[string]*model.Category{}}
}

func (f *fakeCategoryStore) add(cat model.Category) *model.Category {
	if cat.ID == "" {
		f.seq++
		cat.ID = fmt.Sprintf("cat-%d", f.seq)
	}
	f.cats[cat.ID] = &cat
	return &cat
}

func (f *fakeCategoryStore) ListByUser(ctx context.Context, userID string) ([]model.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Category{}
	for _, cat := range f.cats {
		if cat.UserID == userID {
			out = append(out, *cat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategoryStore) FindByID(ctx context.Context, id, userID string) (*model.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	cat, ok := f.cats[id]
	if !ok || cat.UserID != userID {
		return nil, repository.ErrCategoryNotFound
	}
	cp := *cat
	return &cp, nil
}

func (f *fakeCategoryStore) Create(ctx context.Context, c *model.Category) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.cats {
		if existing.UserID == c.UserID && strings.EqualFold(existing.Name, c.Name) {
			return repository.ErrCategoryExists
		}
	}
	f.seq++
	c.ID = fmt.Sprintf("cat-%d", f.seq)
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	f.cats[c.ID] = &cp
	return nil
}

func (f *fakeCategoryStore) CreateDefaults(ctx context.Context, userID string) error {
	if f.seedErr != nil {
		return f.seedErr
	}
	f.seeded = append(f.seeded, userID)
	for _, cat := range model.DefaultCategories() {
		cat.UserID = userID
		f.add(cat)
	}
	return nil
}

func (f *fakeCategoryStore) Update(ctx context.Context, c *model.Category) error {
	if f.err != nil {
		return f.err
	}
	existing, ok := f.cats[c.ID]
	if !ok || existing.UserID != c.UserID {
		return repository.ErrCategoryNotFound
	}
	for id, other := range f.cats {
		if id != c.ID && other.UserID == c.UserID && strings.EqualFold(other.Name, c.Name) {
			return repository.ErrCategoryExists
		}
	}
	cp := *c
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	f.cats[c.ID] = &cp
	return nil
}

func (f *fakeCategoryStore) Delete(ctx context.Context, id, userID string) error {
	if f.err != nil {
		return f.err
	}
	cat, ok := f.cats[id]
	if !ok || cat.UserID != userID {
		return repository.ErrCategoryNotFound
	}
	delete(f.cats, id)
	return nil
}

type fakeTransactionStore struct {
	txs      map[string]*model.Transaction // by id
	err      error
	batchErr error

	lastUser   string
	lastFilter repository.TransactionFilter
	batches    [][]model.Transaction
	summary    []model.CategorySummary
	seq        int
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{txs: map[string]*model.Transaction{}}
}

func (f *fakeTransactionStore) add(t model.Transaction) *model.Transaction {
	if t.ID == "" {
		f.seq++
		t.ID = fmt.Sprintf("t-%d", f.seq)
	}
	f.txs[t.ID] = &t
	return &t
}

func (f *fakeTransactionStore) List(ctx context.Context, userID string, flt repository.TransactionFilter) ([]model.Transaction, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	f.lastUser = userID
	f.lastFilter = flt
	out := []model.Transaction{}
	for _, t := range f.txs {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeTransactionStore) FindByID(ctx context.Context, id, userID string) (*model.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.txs[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTransactionStore) Create(ctx context.Context, t *model.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.seq++
	t.ID = fmt.Sprintf("t-%d", f.seq)
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	f.txs[t.ID] = &cp
	return nil
}

func (f *fakeTransactionStore) CreateBatch(ctx context.Context, txs []model.Transaction) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches = append(f.batches, append([]model.Transaction(nil), txs...))
	for _, t := range txs {
		f.add(t)
	}
	return nil
}

func (f *fakeTransactionStore) Update(ctx context.Context, t *model.Transaction) error {
	if f.err != nil {
		return f.err
	}
	existing, ok := f.txs[t.ID]
	if !ok || existing.UserID != t.UserID {
		return repository.ErrTransactionNotFound
	}
	cp := *t
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	f.txs[t.ID] = &cp
	return nil
}

func (f *fakeTransactionStore) Delete(ctx context.Context, id, userID string) error {
	if f.err != nil {
		return f.err
	}
	t, ok := f.txs[id]
	if !ok || t.UserID != userID {
		return repository.ErrTransactionNotFound
	}
	delete(f.txs, id)
	return nil
}

func (f *fakeTransactionStore) SummarizeByCategory(ctx context.Context, userID string, from, to time.Time) ([]model.CategorySummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

// newRequestContext builds an echo context around an optional JSON body.
func newRequestContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// actAs plants the context values the auth guard would set.
func actAs(c echo.Context, u *model.User) {
	c.Set("user_id", u.ID)
	c.Set("user", u.Public())
}
