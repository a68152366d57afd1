package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/flowly/internal/csvio"
	"github.com/Veraticus/flowly/internal/model"
	"github.com/Veraticus/flowly/internal/report"
	"github.com/Veraticus/flowly/internal/storage"
	"github.com/Veraticus/flowly/internal/testutil"
)

var testNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store    *storage.SQLiteStorage
	handler  http.Handler
	checking model.Account
}

func party(txn model.Transaction, name string) model.Transaction {
	txn.CustomerVendor = name
	return txn
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	checking := db.AddAccount("Checking", "1000")
	db.AddTransaction(party(testutil.Sale("2024-01-15", checking.ID, "100", "4"), "Jane"))
	db.AddTransaction(party(testutil.Purchase("2024-01-10", checking.ID, "60", "10"), "Supplier"))
	db.AddTransaction(party(testutil.Expense("2023-12-01", checking.ID, "15"), "Landlord"))

	server := NewServer(db.Storage, func() time.Time { return testNow })
	return &fixture{store: db.Storage, handler: server.Routes(), checking: checking}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MetricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024-01-15", resp.AsOf)
	assert.Equal(t, model.DefaultUnitLabel, resp.UnitLabel)
	assert.True(t, resp.DollarsPerUnit.Equal(decimal.NewFromInt(25)))
	assert.True(t, resp.TotalUnitsInStock.Equal(decimal.NewFromInt(6)))
	assert.True(t, resp.TotalCashBalance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, resp.NetCashFlow["overall"].Equal(decimal.NewFromInt(25)))
	assert.True(t, resp.NetCashFlow["monthly"].Equal(decimal.NewFromInt(40)))
	assert.True(t, resp.NetCashFlow["weekly"].Equal(decimal.NewFromInt(40)))
	assert.True(t, resp.NetCashFlow["daily"].Equal(decimal.NewFromInt(100)))

	rec = f.do(t, http.MethodGet, "/api/metrics?now=2024-02-01T09:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024-02-01", resp.AsOf)
	assert.True(t, resp.NetCashFlow["monthly"].IsZero())

	rec = f.do(t, http.MethodGet, "/api/metrics?now=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInventory(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/inventory", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp InventoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.InStock.Equal(decimal.NewFromInt(6)))
	assert.True(t, resp.Sales.Equal(decimal.NewFromInt(4)))
	assert.True(t, resp.Purchases.Equal(decimal.NewFromInt(10)))
}

func TestAccounts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/accounts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Accounts []AccountResponse `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Accounts, 1)
	assert.Equal(t, "Checking", list.Accounts[0].Name)

	rec = f.do(t, http.MethodGet, "/api/accounts/"+f.checking.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/accounts/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTransactions(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		query string
		want  []string
		code  int
	}{
		{name: "default sort newest first", query: "", want: []string{"Jane", "Supplier", "Landlord"}, code: http.StatusOK},
		{name: "amount ascending", query: "?sort=amountAsc", want: []string{"Landlord", "Supplier", "Jane"}, code: http.StatusOK},
		{name: "type filter", query: "?type=purchase", want: []string{"Supplier"}, code: http.StatusOK},
		{name: "search", query: "?search=LAND", want: []string{"Landlord"}, code: http.StatusOK},
		{name: "days", query: "?days=7", want: []string{"Jane", "Supplier"}, code: http.StatusOK},
		{name: "bad sort", query: "?sort=random", code: http.StatusBadRequest},
		{name: "bad type", query: "?type=refund", code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/transactions"+tt.query, "")
			require.Equal(t, tt.code, rec.Code)
			if tt.code != http.StatusOK {
				return
			}
			var resp struct {
				Transactions []TransactionResponse `json:"transactions"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			var got []string
			for _, txn := range resp.Transactions {
				got = append(got, txn.CustomerVendor)
				assert.Equal(t, "Checking", txn.AccountName)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateTransaction(t *testing.T) {
	f := newFixture(t)

	body := `{"date":"2024-01-14","type":"Gift","customerVendor":"Mum","accountId":"` + f.checking.ID + `","moneyIn":"20"}`
	rec := f.do(t, http.MethodPost, "/api/transactions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Checking", created.AccountName)

	body = `{"date":"2024-01-14","type":"Sale","accountId":"` + f.checking.ID + `","moneyIn":"20","moneyOut":"5"}`
	rec = f.do(t, http.MethodPost, "/api/transactions", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "validation_failed", errResp.Error)
	assert.Contains(t, errResp.Fields, "units")
	assert.Contains(t, errResp.Fields, "moneyOut")

	rec = f.do(t, http.MethodPost, "/api/transactions", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/transactions/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/transactions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "transactions_20240115.csv")

	lines := strings.Split(strings.TrimSuffix(rec.Body.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 4)
	assert.Equal(t, csvio.HeaderLine(model.DefaultUnitLabel), lines[0])
	assert.Equal(t, "2024-01-15,Sale,Jane,Checking,100,,4,", lines[1])
}

func TestExportXLSX(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.ContentType, rec.Header().Get("Content-Type"))

	book, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = book.Close() }()
	rows, err := book.GetRows(report.SheetTransactions)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestImport(t *testing.T) {
	f := newFixture(t)

	csv := csvio.HeaderLine("units") + "\n" +
		"2024-01-12,Purchase,Mill,Checking,,30,5,\n" +
		"2024-01-13,Sale,Bob,Savings,10,,1,\n"
	rec := f.do(t, http.MethodPost, "/api/import", csv)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp ImportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Imported)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, "Savings", resp.Skipped[0].Account)

	count, err := f.store.GetTransactionCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestImport_Empty(t *testing.T) {
	f := newFixture(t)

	csv := csvio.HeaderLine("units") + "\n2024-01-15,Sale,Jane,Nonexistent,50,,10,\n"
	rec := f.do(t, http.MethodPost, "/api/import", csv)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, csvio.ErrImportEmpty.Error(), errResp.Message)

	count, err := f.store.GetTransactionCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSettingsAndGifts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.AddAccount("Cash Box", "20")
	db.SetDefaultAccount("Cash Box")
	cashBox := db.MustGetAccount("Cash Box")
	db.AddTransaction(party(testutil.Gift("2024-01-15", cashBox.ID, "30"), "Mum"))

	handler := NewServer(db.Storage, func() time.Time { return testNow }).Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var settings SettingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	require.NotNil(t, settings.DefaultAccountID)
	assert.Equal(t, cashBox.ID, *settings.DefaultAccountID)
	assert.Equal(t, model.DefaultUnitLabel, settings.UnitLabel)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts?active=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Accounts []AccountResponse `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Accounts, 1)
	assert.True(t, list.Accounts[0].IsDefault)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	var metrics MetricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.True(t, metrics.NetCashFlow["daily"].Equal(decimal.NewFromInt(30)))
	assert.True(t, metrics.DollarsPerUnit.IsZero())
}
