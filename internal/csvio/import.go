package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/flowly/internal/ledger"
	"github.com/Veraticus/flowly/internal/model"
)

// ErrImportEmpty means no row of the file could be imported.
var ErrImportEmpty = errors.New("no valid transactions found in the CSV; ensure the 'Account' column matches existing account names")

// placeholderCounterparty replaces a blank Customer/Vendor cell.
const placeholderCounterparty = "N/A"

// SkipReason explains why a row was left out.
type SkipReason string

// Skip reasons.
const (
	SkipUnknownAccount SkipReason = "unknown account"
	SkipMalformed      SkipReason = "malformed row"
)

// SkippedRow describes one row that was not imported.
type SkippedRow struct {
	Account string
	Reason  SkipReason
	Line    int
}

// ImportResult is the outcome of a CSV import.
type ImportResult struct {
	Transactions []model.Transaction
	Skipped      []SkippedRow
	// DateFallbacks counts rows whose date could not be read and was replaced
	// by the import date.
	DateFallbacks int
}

// Import parses CSV content into new transactions against the given
// accounts. Rows naming an account that does not exist (exact,
// case-sensitive match) are left out of the result. Every other row is
// accepted: an unreadable date becomes now's calendar date, a blank or
// unknown type becomes Sale and blank or non-numeric amounts become zero.
// ErrImportEmpty is returned when nothing was accepted.
func Import(r io.Reader, accounts []model.Account, unitLabel string, now time.Time) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &ImportResult{}, ErrImportEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	cols := indexColumns(header, unitLabel)

	result := &ImportResult{}
	today := model.CalendarDate(now)
	createdAt := now.UTC()

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Skipped = append(result.Skipped, SkippedRow{Line: parseErr.StartLine, Reason: SkipMalformed})
				slog.Debug("skipping malformed csv row", "line", parseErr.StartLine, "error", err)
				continue
			}
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := cr.FieldPos(0)

		name := cols.get(record, ColAccount)
		account, ok := ledger.FindAccountByName(accounts, name)
		if !ok {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Account: name, Reason: SkipUnknownAccount})
			slog.Debug("skipping csv row with unknown account", "line", line, "account", name)
			continue
		}

		date, ok := model.ParseDate(cols.get(record, ColDate))
		if !ok {
			date = today
			result.DateFallbacks++
		}

		typ, ok := model.ParseTransactionType(cols.get(record, ColType))
		if !ok {
			typ = model.TypeSale
		}

		counterparty := strings.TrimSpace(cols.get(record, ColCustomerVendor))
		if counterparty == "" {
			counterparty = placeholderCounterparty
		}

		result.Transactions = append(result.Transactions, model.Transaction{
			ID:             uuid.NewString(),
			Date:           date,
			Type:           typ,
			CustomerVendor: counterparty,
			AccountID:      account.ID,
			MoneyIn:        coerceAmount(cols.get(record, ColMoneyIn)),
			MoneyOut:       coerceAmount(cols.get(record, ColMoneyOut)),
			Units:          coerceAmount(cols.units(record)),
			Notes:          cols.get(record, ColNotes),
			CreatedAt:      createdAt,
		})
	}

	if len(result.Transactions) == 0 {
		return result, ErrImportEmpty
	}
	return result, nil
}

// coerceAmount parses a cell, treating blank, non-numeric and negative
// values as zero.
func coerceAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		return decimal.Zero
	}
	return v
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

type columns struct {
	index     map[string]int
	unitsCol  int
	haveUnits bool
}

// indexColumns maps header names to positions. The units column is found by
// its exact label first, then by any "Units (...)" header so files exported
// under a different label still import.
func indexColumns(header []string, unitLabel string) columns {
	c := columns{index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := c.index[h]; !dup {
			c.index[h] = i
		}
	}

	if i, ok := c.index[UnitsColumn(unitLabel)]; ok {
		c.unitsCol, c.haveUnits = i, true
		return c
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if strings.HasPrefix(h, "Units (") && strings.HasSuffix(h, ")") {
			c.unitsCol, c.haveUnits = i, true
			break
		}
	}
	return c
}

func (c columns) get(record []string, name string) string {
	i, ok := c.index[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func (c columns) units(record []string) string {
	if !c.haveUnits || c.unitsCol >= len(record) {
		return ""
	}
	return record[c.unitsCol]
}
