// Package report renders a ledger snapshot as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/flowly/internal/csvio"
	"github.com/Veraticus/flowly/internal/ledger"
	"github.com/Veraticus/flowly/internal/model"
)

// Sheet names.
const (
	SheetTransactions = "Transactions"
	SheetSummary      = "Summary"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// numericColumns are the zero-based Transactions columns written as numbers.
var numericColumns = map[int]bool{4: true, 5: true, 6: true}

// Build creates the workbook for a snapshot: one row per transaction, newest
// first, and a summary of the dashboard metrics as of now.
func Build(snap model.Snapshot, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetTransactions); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeTransactions(f, snap); err != nil {
		_ = f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeSummary(f, snap, now); err != nil {
		_ = f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, snap model.Snapshot, now time.Time) error {
	f, err := Build(snap, now)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeTransactions(f *excelize.File, snap model.Snapshot) error {
	header := csvio.Header(snap.Settings.Label())
	if err := setRow(f, SheetTransactions, 1, toAny(header)); err != nil {
		return err
	}
	if err := boldRow(f, SheetTransactions, len(header)); err != nil {
		return err
	}

	for i, t := range ledger.Join(snap.Transactions, snap.Accounts) {
		cells := toAny(csvio.Record(t))
		for col := range numericColumns {
			cells[col] = amountCell(amountAt(t, col))
		}
		if err := setRow(f, SheetTransactions, i+2, cells); err != nil {
			return err
		}
	}

	widths := []float64{12, 10, 24, 18, 12, 12, 14, 40}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetTransactions, col, col, w); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

func amountAt(t model.EnrichedTransaction, col int) decimal.Decimal {
	switch col {
	case 4:
		return t.MoneyIn
	case 5:
		return t.MoneyOut
	default:
		return t.Units
	}
}

// amountCell leaves zero amounts blank, matching the CSV export.
func amountCell(v decimal.Decimal) any {
	if v.IsZero() {
		return ""
	}
	return v.InexactFloat64()
}

func writeSummary(f *excelize.File, snap model.Snapshot, now time.Time) error {
	metrics := ledger.Compute(snap.Accounts, snap.Transactions, now)
	breakdown := ledger.UnitsBreakdown(snap.Transactions)
	label := snap.Settings.Label()

	rows := [][]any{
		{"Metric", "Value"},
		{"As of", model.FormatDate(model.CalendarDate(now))},
		{"Dollars per unit", metrics.DollarsPerUnit.Round(2).InexactFloat64()},
		{fmt.Sprintf("Units in stock (%s)", label), metrics.TotalUnitsInStock.InexactFloat64()},
		{"Total cash balance", metrics.TotalCashBalance.InexactFloat64()},
	}
	for _, w := range ledger.Windows {
		rows = append(rows, []any{
			"Net cash flow (" + titleCase(string(w)) + ")",
			metrics.Flow(w).InexactFloat64(),
		})
	}
	rows = append(rows,
		[]any{fmt.Sprintf("Units sold (%s)", label), breakdown.Sales.InexactFloat64()},
		[]any{fmt.Sprintf("Units purchased (%s)", label), breakdown.Purchases.InexactFloat64()},
		[]any{fmt.Sprintf("Units gifted (%s)", label), breakdown.Gifts.InexactFloat64()},
	)

	for i, row := range rows {
		if err := setRow(f, SheetSummary, i+1, row); err != nil {
			return err
		}
	}
	if err := boldRow(f, SheetSummary, 2); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 28); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return f.SetColWidth(SheetSummary, "B", "B", 16)
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func boldRow(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
