package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/personal-finance-api/internal/middleware"
	"github.com/iliyamo/personal-finance-api/internal/model"
	"github.com/iliyamo/personal-finance-api/internal/repository"
)

// CategoryHandler serves the per-user category endpoints. Every query is
// scoped to the authenticated user; ownership failures surface as 404.
type CategoryHandler struct {
	Categories repository.CategoryStore
}

func NewCategoryHandler(categories repository.CategoryStore) *CategoryHandler {
	return &CategoryHandler{Categories: categories}
}

type categoryReq struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (r *categoryReq) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
	if r.Name == "" {
		return errors.New("name required")
	}
	if len([]rune(r.Name)) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !model.ValidKind(r.Kind) {
		return errors.New("kind must be income or expense")
	}
	return nil
}

// List returns all categories belonging to the caller, sorted by name.
func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cats, err := h.Categories.ListByUser(ctx, middleware.UserID(c))
	if err != nil {
		c.Logger().Errorf("list categories: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list categories failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": cats})
}

// Create adds a category. Names are unique per user and kind.
func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat := &model.Category{UserID: middleware.UserID(c), Name: req.Name, Kind: req.Kind}
	if err := h.Categories.Create(ctx, cat); err != nil {
		if errors.Is(err, repository.ErrCategoryExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "category name already in use"})
		}
		c.Logger().Errorf("create category: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create category failed"})
	}
	return c.JSON(http.StatusCreated, cat)
}

// Update renames and/or rekinds a category the caller owns. Changing the
// kind does not touch existing transactions; they keep their own type.
func (h *CategoryHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat := &model.Category{ID: id, UserID: middleware.UserID(c), Name: req.Name, Kind: req.Kind}
	if err := h.Categories.Update(ctx, cat); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		case errors.Is(err, repository.ErrCategoryExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "category name already in use"})
		default:
			c.Logger().Errorf("update category: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update category failed"})
		}
	}
	return c.JSON(http.StatusOK, cat)
}

// Delete removes a category. Transactions that referenced it survive with
// their category cleared by the schema's ON DELETE SET NULL.
func (h *CategoryHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Categories.Delete(ctx, c.Param("id"), middleware.UserID(c)); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		c.Logger().Errorf("delete category: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete category failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "category deleted"})
}
