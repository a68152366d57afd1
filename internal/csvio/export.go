// Package csvio converts ledger transactions to and from the flat CSV format
// used for spreadsheets and backups.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/flowly/internal/model"
)

// Column names, in file order.
const (
	ColDate           = "Date"
	ColType           = "Type"
	ColCustomerVendor = "Customer/Vendor"
	ColAccount        = "Account"
	ColMoneyIn        = "Money In"
	ColMoneyOut       = "Money Out"
	ColNotes          = "Notes"
)

// UnitsColumn is the header of the units column for a unit label.
func UnitsColumn(unitLabel string) string {
	if unitLabel == "" {
		unitLabel = model.DefaultUnitLabel
	}
	return "Units (" + unitLabel + ")"
}

// Header returns the column names for a unit label.
func Header(unitLabel string) []string {
	return []string{
		ColDate, ColType, ColCustomerVendor, ColAccount,
		ColMoneyIn, ColMoneyOut, UnitsColumn(unitLabel), ColNotes,
	}
}

// HeaderLine is the exact first line of an export. The units column is
// always quoted; the other names never need quoting.
func HeaderLine(unitLabel string) string {
	units := `"` + strings.ReplaceAll(UnitsColumn(unitLabel), `"`, `""`) + `"`
	return strings.Join([]string{
		ColDate, ColType, ColCustomerVendor, ColAccount,
		ColMoneyIn, ColMoneyOut, units, ColNotes,
	}, ",")
}

// Export writes one row per transaction, in the order given. Zero amounts
// are written as empty cells.
func Export(w io.Writer, txns []model.EnrichedTransaction, unitLabel string) error {
	if _, err := io.WriteString(w, HeaderLine(unitLabel)+"\r\n"); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	for _, t := range txns {
		if err := cw.Write(Record(t)); err != nil {
			return fmt.Errorf("failed to write transaction %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// Record renders one transaction as CSV cells.
func Record(t model.EnrichedTransaction) []string {
	return []string{
		model.FormatDate(t.Date),
		string(t.Type),
		t.CustomerVendor,
		t.AccountName,
		formatAmount(t.MoneyIn),
		formatAmount(t.MoneyOut),
		formatAmount(t.Units),
		t.Notes,
	}
}

func formatAmount(v decimal.Decimal) string {
	if v.IsZero() {
		return ""
	}
	return v.String()
}
