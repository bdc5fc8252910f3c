package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/personal-finance-api/internal/middleware"
	"github.com/iliyamo/personal-finance-api/internal/model"
	"github.com/iliyamo/personal-finance-api/internal/queue"
)

const (
	maxImportBytes = 1 << 20 // 1 MiB upload cap
	maxImportRows  = 1000
)

// importHeader is the required first line of an import file. The note and
// category values may be empty; category is matched against the caller's
// category names, not ids.
var importHeader = []string{"date", "type", "title", "amount_cents", "note", "category"}

type importRowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// Import ingests a CSV of transactions uploaded as multipart field "file".
// Rows are validated individually; valid rows are inserted in a single
// database transaction and failures are reported per line.
func (h *TransactionHandler) Import(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart field 'file' required"})
	}
	if fh.Size > maxImportBytes {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file too large (max 1 MiB)"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(importHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty or malformed csv"})
	}
	if !headerMatches(header) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "header must be: " + strings.Join(importHeader, ","),
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	uid := middleware.UserID(c)

	catByName, err := h.categoryNameIndex(ctx, uid)
	if err != nil {
		c.Logger().Errorf("import: load categories: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed"})
	}

	var (
		valid     []model.Transaction
		rowErrors []importRowError
	)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A structural error (bad quoting, wrong column count) applies
			// to one line; report it and keep going.
			rowErrors = append(rowErrors, importRowError{Line: line, Error: "malformed row"})
			continue
		}
		if line-1 > maxImportRows {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": fmt.Sprintf("too many rows (max %d)", maxImportRows),
			})
		}
		t, err := parseImportRow(record, uid, catByName)
		if err != nil {
			rowErrors = append(rowErrors, importRowError{Line: line, Error: err.Error()})
			continue
		}
		valid = append(valid, t)
	}

	if len(valid) == 0 {
		body := echo.Map{"error": "no importable rows", "imported": 0, "failed": len(rowErrors)}
		if len(rowErrors) > 0 {
			body["errors"] = rowErrors
		}
		return c.JSON(http.StatusBadRequest, body)
	}

	if err := h.Transactions.CreateBatch(ctx, valid); err != nil {
		c.Logger().Errorf("import: batch insert: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed"})
	}

	h.emit(queue.TransactionEvent{
		Action: queue.ActionImported,
		UserID: uid,
		Count:  len(valid),
		At:     time.Now().UTC().Format(time.RFC3339),
	})

	body := echo.Map{"imported": len(valid), "failed": len(rowErrors)}
	if len(rowErrors) > 0 {
		body["errors"] = rowErrors
	}
	return c.JSON(http.StatusOK, body)
}

func headerMatches(got []string) bool {
	if len(got) != len(importHeader) {
		return false
	}
	for i, want := range importHeader {
		if strings.ToLower(strings.TrimSpace(got[i])) != want {
			return false
		}
	}
	return true
}

// categoryNameIndex maps lowercased category names to ids for the user.
// The names column is unique per user under a case-insensitive collation,
// so the lowercase key cannot collide.
func (h *TransactionHandler) categoryNameIndex(ctx context.Context, userID string) (map[string]string, error) {
	cats, err := h.Categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]string, len(cats))
	for _, cat := range cats {
		idx[strings.ToLower(cat.Name)] = cat.ID
	}
	return idx, nil
}

// parseImportRow validates one csv record against the same rules as the
// create endpoint and resolves the optional category name.
func parseImportRow(record []string, userID string, catByName map[string]string) (model.Transaction, error) {
	date := strings.TrimSpace(record[0])
	kind := strings.ToLower(strings.TrimSpace(record[1]))
	title := strings.TrimSpace(record[2])
	amountRaw := strings.TrimSpace(record[3])
	note := record[4]
	catName := strings.TrimSpace(record[5])

	occurred, err := time.Parse(dateLayout, date)
	if err != nil {
		return model.Transaction{}, errors.New("date must be YYYY-MM-DD")
	}
	if !model.ValidKind(kind) {
		return model.Transaction{}, errors.New("type must be income or expense")
	}
	if title == "" {
		return model.Transaction{}, errors.New("title required")
	}
	if len([]rune(title)) > 255 {
		return model.Transaction{}, errors.New("title too long (max 255 characters)")
	}
	if len([]rune(note)) > 1024 {
		return model.Transaction{}, errors.New("note too long (max 1024 characters)")
	}
	amount, err := strconv.ParseInt(amountRaw, 10, 64)
	if err != nil || amount <= 0 {
		return model.Transaction{}, errors.New("amount_cents must be a positive integer")
	}

	t := model.Transaction{
		UserID:      userID,
		Type:        kind,
		Title:       title,
		Note:        note,
		AmountCents: amount,
		OccurredAt:  occurred,
	}
	if catName != "" {
		id, ok := catByName[strings.ToLower(catName)]
		if !ok {
			return model.Transaction{}, fmt.Errorf("unknown category %q", catName)
		}
		t.CategoryID = &id
	}
	return t, nil
}
