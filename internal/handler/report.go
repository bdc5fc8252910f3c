package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/personal-finance-api/internal/middleware"
	"github.com/iliyamo/personal-finance-api/internal/model"
	"github.com/iliyamo/personal-finance-api/internal/repository"
)

// ReportHandler serves aggregated views over the ledger.
type ReportHandler struct {
	Transactions repository.TransactionStore
}

func NewReportHandler(transactions repository.TransactionStore) *ReportHandler {
	return &ReportHandler{Transactions: transactions}
}

// Summary returns per-category totals plus overall income, expense and net
// for a date range. Without from/to it covers the current month to date.
func (h *ReportHandler) Summary(c echo.Context) error {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if p, err := dateQueryParam(c, "from"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	} else if p != nil {
		from = *p
	}
	if p, err := dateQueryParam(c, "to"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	} else if p != nil {
		to = *p
	}
	if from.After(to) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must not be after to"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Transactions.SummarizeByCategory(ctx, middleware.UserID(c), from, to)
	if err != nil {
		c.Logger().Errorf("report summary: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}

	var income, expense int64
	for _, r := range rows {
		switch r.Kind {
		case model.KindIncome:
			income += r.TotalCents
		case model.KindExpense:
			expense += r.TotalCents
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"from":              from.Format(dateLayout),
		"to":                to.Format(dateLayout),
		"totalIncomeCents":  income,
		"totalExpenseCents": expense,
		"netCents":          income - expense,
		"categories":        rows,
	})
}
