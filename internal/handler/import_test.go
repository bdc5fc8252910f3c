package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/personal-finance-api/internal/model"
	"github.com/iliyamo/personal-finance-api/internal/queue"
)

// multipartCSV builds an import request carrying csvBody as the "file" field.
func multipartCSV(t *testing.T, csvBody string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "transactions.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, csvBody)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/transactions/import", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestImport(t *testing.T) {
	h, txs, cats, events := newTestTransactionHandler()
	cat := cats.add(model.Category{UserID: "u-1", Name: "Groceries", Kind: model.KindExpense})

	c, rec := multipartCSV(t, `date,type,title,amount_cents,note,category
2025-03-01,expense,Weekly shop,4250,big run,groceries
2025-03-02,expense,Bad row,-5,,
2025-03-03,income,Salary,500000,,
`)
	actAs(c, &model.User{ID: "u-1"})

	require.NoError(t, h.Import(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Imported int `json:"imported"`
		Failed   int `json:"failed"`
		Errors   []struct {
			Line  int    `json:"line"`
			Error string `json:"error"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Imported)
	require.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Errors, 1)
	require.Equal(t, 3, resp.Errors[0].Line)
	require.Contains(t, resp.Errors[0].Error, "amount_cents")

	require.Len(t, txs.batches, 1)
	batch := txs.batches[0]
	require.Len(t, batch, 2)
	require.Equal(t, "Weekly shop", batch[0].Title)
	require.NotNil(t, batch[0].CategoryID)
	require.Equal(t, cat.ID, *batch[0].CategoryID)
	require.Equal(t, "Salary", batch[1].Title)
	require.Nil(t, batch[1].CategoryID)

	ev := waitEvent(t, events)
	require.Equal(t, queue.ActionImported, ev.Action)
	require.Equal(t, 2, ev.Count)
	require.Equal(t, "u-1", ev.UserID)
}

func TestImport_BadHeader(t *testing.T) {
	h, txs, _, _ := newTestTransactionHandler()

	c, rec := multipartCSV(t, `when,what,how_much
2025-03-01,expense,4250
`)
	actAs(c, &model.User{ID: "u-1"})

	require.NoError(t, h.Import(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "header must be")
	require.Empty(t, txs.batches)
}

func TestImport_NoValidRows(t *testing.T) {
	h, txs, _, events := newTestTransactionHandler()

	c, rec := multipartCSV(t, `date,type,title,amount_cents,note,category
2025-03-01,transfer,Move money,100,,
`)
	actAs(c, &model.User{ID: "u-1"})

	require.NoError(t, h.Import(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "no importable rows")
	require.Empty(t, txs.batches)
	require.Empty(t, events)
}

func TestImport_UnknownCategory(t *testing.T) {
	h, _, _, _ := newTestTransactionHandler()

	c, rec := multipartCSV(t, `date,type,title,amount_cents,note,category
2025-03-01,expense,Weekly shop,4250,,Nope
`)
	actAs(c, &model.User{ID: "u-1"})

	require.NoError(t, h.Import(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `unknown category \"Nope\"`)
}

func TestImport_MissingFile(t *testing.T) {
	h, _, _, _ := newTestTransactionHandler()

	c, rec := newRequestContext(t, http.MethodPost, "/v1/transactions/import", `{"rows":[]}`)
	actAs(c, &model.User{ID: "u-1"})

	require.NoError(t, h.Import(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "file")
}

func TestImport_MalformedRowReported(t *testing.T) {
	h, _, _, _ := newTestTransactionHandler()

	// Second data row has the wrong number of columns.
	c, rec := multipartCSV(t, `date,type,title,amount_cents,note,category
2025-03-01,expense,Weekly shop,4250,,
2025-03-02,expense,Too few
`)
	actAs(c, &model.User{ID: "u-1"})

	require.NoError(t, h.Import(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Imported int `json:"imported"`
		Failed   int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Imported)
	require.Equal(t, 1, resp.Failed)
	require.Contains(t, rec.Body.String(), "malformed row")
}
