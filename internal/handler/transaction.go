package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/personal-finance-api/internal/middleware"
	"github.com/iliyamo/personal-finance-api/internal/model"
	"github.com/iliyamo/personal-finance-api/internal/queue"
	"github.com/iliyamo/personal-finance-api/internal/repository"
)

// dateLayout is the wire format for occurredAt and the from/to filters.
const dateLayout = "2006-01-02"

// TransactionHandler serves the ledger endpoints. Writes publish an audit
// event via Publish; publishing is best-effort and never fails a request.
type TransactionHandler struct {
	Transactions repository.TransactionStore
	Categories   repository.CategoryStore
	Publish      func(ctx context.Context, ev queue.TransactionEvent) error
}

func NewTransactionHandler(transactions repository.TransactionStore, categories repository.CategoryStore,
	publish func(ctx context.Context, ev queue.TransactionEvent) error) *TransactionHandler {
	return &TransactionHandler{Transactions: transactions, Categories: categories, Publish: publish}
}

type transactionReq struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Note        string  `json:"note"`
	AmountCents int64   `json:"amountCents"`
	OccurredAt  string  `json:"occurredAt"`
	CategoryID  *string `json:"categoryId"`
}

// validate normalizes the request in place and returns the parsed date.
func (r *transactionReq) validate() (time.Time, error) {
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	r.Title = strings.TrimSpace(r.Title)
	if r.CategoryID != nil && strings.TrimSpace(*r.CategoryID) == "" {
		r.CategoryID = nil
	}
	if !model.ValidKind(r.Type) {
		return time.Time{}, errors.New("type must be income or expense")
	}
	if r.Title == "" {
		return time.Time{}, errors.New("title required")
	}
	if len([]rune(r.Title)) > 255 {
		return time.Time{}, errors.New("title too long (max 255 characters)")
	}
	if len([]rune(r.Note)) > 1024 {
		return time.Time{}, errors.New("note too long (max 1024 characters)")
	}
	if r.AmountCents <= 0 {
		return time.Time{}, errors.New("amountCents must be a positive integer")
	}
	occurred, err := time.Parse(dateLayout, r.OccurredAt)
	if err != nil {
		return time.Time{}, errors.New("occurredAt must be a YYYY-MM-DD date")
	}
	return occurred, nil
}

// List returns a filtered page of the caller's transactions. Filters:
// from, to (YYYY-MM-DD), type, category_id, limit (max 200), offset.
func (h *TransactionHandler) List(c echo.Context) error {
	var f repository.TransactionFilter

	from, err := dateQueryParam(c, "from")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	to, err := dateQueryParam(c, "to")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	f.From, f.To = from, to

	if t := strings.ToLower(strings.TrimSpace(c.QueryParam("type"))); t != "" {
		if !model.ValidKind(t) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be income or expense"})
		}
		f.Type = t
	}
	f.CategoryID = strings.TrimSpace(c.QueryParam("category_id"))

	limit, err := intQueryParam(c, "limit", 50)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	offset, err := intQueryParam(c, "offset", 0)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	// Clamp like the store does; the response echoes the effective page.
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	f.Limit, f.Offset = limit, offset

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Transactions.List(ctx, middleware.UserID(c), f)
	if err != nil {
		c.Logger().Errorf("list transactions: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list transactions failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"transactions": items,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

// Get fetches one transaction the caller owns.
func (h *TransactionHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Transactions.FindByID(ctx, c.Param("id"), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		}
		c.Logger().Errorf("get transaction: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get transaction failed"})
	}
	return c.JSON(http.StatusOK, t)
}

// Create records a ledger entry. A referenced category must exist and
// belong to the caller.
func (h *TransactionHandler) Create(c echo.Context) error {
	var req transactionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	occurred, err := req.validate()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	uid := middleware.UserID(c)

	if status, err := h.checkCategory(ctx, uid, req.CategoryID); err != nil {
		return c.JSON(status, echo.Map{"error": err.Error()})
	}

	t := &model.Transaction{
		UserID:      uid,
		CategoryID:  req.CategoryID,
		Type:        req.Type,
		Title:       req.Title,
		Note:        req.Note,
		AmountCents: req.AmountCents,
		OccurredAt:  occurred,
	}
	if err := h.Transactions.Create(ctx, t); err != nil {
		c.Logger().Errorf("create transaction: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create transaction failed"})
	}

	h.emit(queue.TransactionEvent{
		Action:        queue.ActionCreated,
		UserID:        uid,
		TransactionID: t.ID,
		Type:          t.Type,
		AmountCents:   t.AmountCents,
		At:            time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, t)
}

// Update rewrites a transaction the caller owns.
func (h *TransactionHandler) Update(c echo.Context) error {
	var req transactionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	occurred, err := req.validate()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	uid := middleware.UserID(c)

	if status, err := h.checkCategory(ctx, uid, req.CategoryID); err != nil {
		return c.JSON(status, echo.Map{"error": err.Error()})
	}

	t := &model.Transaction{
		ID:          c.Param("id"),
		UserID:      uid,
		CategoryID:  req.CategoryID,
		Type:        req.Type,
		Title:       req.Title,
		Note:        req.Note,
		AmountCents: req.AmountCents,
		OccurredAt:  occurred,
	}
	if err := h.Transactions.Update(ctx, t); err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		}
		c.Logger().Errorf("update transaction: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update transaction failed"})
	}

	// Re-read for the response so created_at and timestamps are accurate.
	fresh, err := h.Transactions.FindByID(ctx, t.ID, uid)
	if err != nil {
		c.Logger().Errorf("update transaction: reload: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update transaction failed"})
	}

	h.emit(queue.TransactionEvent{
		Action:        queue.ActionUpdated,
		UserID:        uid,
		TransactionID: t.ID,
		Type:          t.Type,
		AmountCents:   t.AmountCents,
		At:            time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, fresh)
}

// Delete removes a transaction the caller owns.
func (h *TransactionHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	uid := middleware.UserID(c)
	id := c.Param("id")

	if err := h.Transactions.Delete(ctx, id, uid); err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		}
		c.Logger().Errorf("delete transaction: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete transaction failed"})
	}

	h.emit(queue.TransactionEvent{
		Action:        queue.ActionDeleted,
		UserID:        uid,
		TransactionID: id,
		At:            time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "transaction deleted"})
}

// checkCategory verifies a referenced category exists and belongs to the
// user. A nil reference means uncategorized and always passes.
func (h *TransactionHandler) checkCategory(ctx context.Context, userID string, catID *string) (int, error) {
	if catID == nil {
		return 0, nil
	}
	if _, err := h.Categories.FindByID(ctx, *catID, userID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return http.StatusBadRequest, errors.New("unknown category")
		}
		return http.StatusInternalServerError, errors.New("category lookup failed")
	}
	return 0, nil
}

// emit hands the event to the publisher without blocking the request.
// The publisher logs its own failures.
func (h *TransactionHandler) emit(ev queue.TransactionEvent) {
	if h.Publish == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Publish(ctx, ev)
	}()
}

func dateQueryParam(c echo.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a YYYY-MM-DD date", name)
	}
	return &t, nil
}

func intQueryParam(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}
