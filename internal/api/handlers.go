package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/flowly/internal/csvio"
	"github.com/Veraticus/flowly/internal/ledger"
	"github.com/Veraticus/flowly/internal/model"
	"github.com/Veraticus/flowly/internal/report"
	"github.com/Veraticus/flowly/internal/validation"
)

// maxImportBytes caps the size of an uploaded CSV.
const maxImportBytes = 10 << 20

// MetricsResponse is the body of GET /api/metrics.
type MetricsResponse struct {
	NetCashFlow       map[ledger.Window]decimal.Decimal `json:"netCashFlow"`
	AsOf              string                            `json:"asOf"`
	UnitLabel         string                            `json:"unitLabel"`
	DollarsPerUnit    decimal.Decimal                   `json:"dollarsPerUnit"`
	TotalUnitsInStock decimal.Decimal                   `json:"totalUnitsInStock"`
	TotalCashBalance  decimal.Decimal                   `json:"totalCashBalance"`
}

// InventoryResponse is the body of GET /api/inventory.
type InventoryResponse struct {
	UnitLabel string          `json:"unitLabel"`
	InStock   decimal.Decimal `json:"inStock"`
	Sales     decimal.Decimal `json:"sales"`
	Purchases decimal.Decimal `json:"purchases"`
	Gifts     decimal.Decimal `json:"gifts"`
}

// AccountResponse is one account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Color     string          `json:"color"`
	CreatedAt string          `json:"createdAt,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	IsActive  bool            `json:"isActive"`
	IsDefault bool            `json:"isDefault"`
}

// TransactionResponse is one enriched transaction in API responses.
type TransactionResponse struct {
	ID             string          `json:"id"`
	Date           string          `json:"date"`
	Type           string          `json:"type"`
	CustomerVendor string          `json:"customerVendor"`
	AccountID      string          `json:"accountId"`
	AccountName    string          `json:"accountName"`
	AccountColor   string          `json:"accountColor"`
	Notes          string          `json:"notes"`
	MoneyIn        decimal.Decimal `json:"moneyIn"`
	MoneyOut       decimal.Decimal `json:"moneyOut"`
	Units          decimal.Decimal `json:"units"`
}

// TransactionRequest is the body of POST /api/transactions. Amounts are
// strings so they reach validation unparsed.
type TransactionRequest struct {
	Date           string `json:"date"`
	Type           string `json:"type"`
	CustomerVendor string `json:"customerVendor"`
	AccountID      string `json:"accountId"`
	MoneyIn        string `json:"moneyIn"`
	MoneyOut       string `json:"moneyOut"`
	Units          string `json:"units"`
	Notes          string `json:"notes"`
}

// ImportResponse is the body of POST /api/import.
type ImportResponse struct {
	Skipped       []SkippedResponse `json:"skipped"`
	Imported      int               `json:"imported"`
	DateFallbacks int               `json:"dateFallbacks"`
}

// SkippedResponse describes a CSV row that was not imported.
type SkippedResponse struct {
	Account string `json:"account,omitempty"`
	Reason  string `json:"reason"`
	Line    int    `json:"line"`
}

// SettingsResponse is the body of GET /api/settings.
type SettingsResponse struct {
	DefaultAccountID *string `json:"defaultAccountId"`
	UnitLabel        string  `json:"unitLabel"`
	Theme            string  `json:"theme"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	if raw := r.URL.Query().Get("now"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "now must be an RFC 3339 timestamp")
			return
		}
		now = parsed
	}

	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	m := ledger.Compute(snap.Accounts, snap.Transactions, now)
	writeJSON(w, http.StatusOK, MetricsResponse{
		AsOf:              model.FormatDate(model.CalendarDate(now)),
		UnitLabel:         snap.Settings.Label(),
		DollarsPerUnit:    m.DollarsPerUnit,
		TotalUnitsInStock: m.TotalUnitsInStock,
		TotalCashBalance:  m.TotalCashBalance,
		NetCashFlow:       m.NetCashFlow,
	})
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	b := ledger.UnitsBreakdown(snap.Transactions)
	writeJSON(w, http.StatusOK, InventoryResponse{
		UnitLabel: snap.Settings.Label(),
		InStock:   ledger.TotalUnitsInStock(snap.Transactions),
		Sales:     b.Sales,
		Purchases: b.Purchases,
		Gifts:     b.Gifts,
	})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{
		DefaultAccountID: settings.DefaultAccountID,
		UnitLabel:        settings.Label(),
		Theme:            string(settings.Theme),
	})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	accounts := snap.Accounts
	if r.URL.Query().Get("active") == "true" {
		accounts = ledger.ActiveAccounts(accounts)
	}

	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse(a, snap.Settings))
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.store.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse(*account, settings))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	opts, err := filterOptions(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	joined := ledger.Filter(ledger.Join(snap.Transactions, snap.Accounts), opts, s.now())
	out := make([]TransactionResponse, 0, len(joined))
	for _, t := range joined {
		out = append(out, transactionResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be a JSON transaction")
		return
	}

	ctx := r.Context()
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	txn, fieldErrs := validation.ValidateTransaction(validation.TransactionForm{
		Date:           req.Date,
		Type:           req.Type,
		CustomerVendor: req.CustomerVendor,
		AccountID:      req.AccountID,
		MoneyIn:        req.MoneyIn,
		MoneyOut:       req.MoneyOut,
		Units:          req.Units,
		Notes:          req.Notes,
	}, validation.Rules{
		AccountExists: accountLookup(snap.Accounts),
		UnitLabel:     snap.Settings.Label(),
	})
	if err := fieldErrs.Err(); err != nil {
		writeStoreError(w, err)
		return
	}

	if err := s.store.AddTransaction(ctx, &txn); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse(ledger.Join([]model.Transaction{txn}, snap.Accounts)[0]))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := csvio.Export(&buf, ledger.Join(snap.Transactions, snap.Accounts), snap.Settings.Label()); err != nil {
		writeStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment("transactions", s.now(), "csv"))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var buf bytes.Buffer
	now := s.now()
	if err := report.Write(&buf, *snap, now); err != nil {
		writeStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", attachment("ledger", now, "xlsx"))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	result, err := csvio.Import(body, snap.Accounts, snap.Settings.Label(), s.now())
	if errors.Is(err, csvio.ErrImportEmpty) {
		writeJSONError(w, http.StatusUnprocessableEntity, "import_empty", err.Error())
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "too_large", "CSV upload is too large")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_csv", err.Error())
		return
	}

	if err := s.store.SaveTransactions(ctx, result.Transactions); err != nil {
		writeStoreError(w, err)
		return
	}

	slog.Info("Imported transactions", "imported", len(result.Transactions), "skipped", len(result.Skipped))

	resp := ImportResponse{
		Imported:      len(result.Transactions),
		DateFallbacks: result.DateFallbacks,
		Skipped:       make([]SkippedResponse, 0, len(result.Skipped)),
	}
	for _, sk := range result.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedResponse{Line: sk.Line, Account: sk.Account, Reason: string(sk.Reason)})
	}
	writeJSON(w, http.StatusCreated, resp)
}

func filterOptions(r *http.Request) (ledger.FilterOptions, error) {
	q := r.URL.Query()
	opts := ledger.FilterOptions{Search: q.Get("search")}

	if raw := q.Get("type"); raw != "" {
		typ, ok := model.ParseTransactionType(raw)
		if !ok {
			return opts, fmt.Errorf("unknown transaction type %q", raw)
		}
		opts.Type = typ
	}

	if raw := q.Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return opts, fmt.Errorf("days must be a non-negative integer")
		}
		opts.Days = days
	}

	sortKey, err := ledger.ParseSortKey(q.Get("sort"))
	if err != nil {
		return opts, err
	}
	opts.SortBy = sortKey
	return opts, nil
}

func accountLookup(accounts []model.Account) func(string) bool {
	ids := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		ids[a.ID] = true
	}
	return func(id string) bool { return ids[id] }
}

func accountResponse(a model.Account, settings model.Settings) AccountResponse {
	resp := AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Color:     string(a.Color),
		Balance:   a.Balance,
		IsActive:  a.IsActive,
		IsDefault: settings.IsDefaultAccount(a.ID),
	}
	if !a.CreatedAt.IsZero() {
		resp.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func transactionResponse(t model.EnrichedTransaction) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID,
		Date:           model.FormatDate(t.Date),
		Type:           string(t.Type),
		CustomerVendor: t.CustomerVendor,
		AccountID:      t.AccountID,
		AccountName:    t.AccountName,
		AccountColor:   string(t.AccountColor),
		Notes:          t.Notes,
		MoneyIn:        t.MoneyIn,
		MoneyOut:       t.MoneyOut,
		Units:          t.Units,
	}
}

func attachment(name string, now time.Time, ext string) string {
	return fmt.Sprintf("attachment; filename=\"%s_%s.%s\"", name, now.Format("20060102"), ext)
}

