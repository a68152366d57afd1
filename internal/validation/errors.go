// Package validation turns raw form input into ledger records, enforcing the
// per-type money and unit rules. Invalid input is reported as field-level
// messages; nothing in this package panics on malformed input.
package validation

import (
	"sort"
	"strings"
)

// Form field names used as FieldErrors keys.
const (
	FieldDate           = "date"
	FieldType           = "type"
	FieldCustomerVendor = "customerVendor"
	FieldAccountID      = "accountId"
	FieldMoneyIn        = "moneyIn"
	FieldMoneyOut       = "moneyOut"
	FieldUnits          = "units"
	FieldNotes          = "notes"
	FieldName           = "name"
	FieldBalance        = "balance"
	FieldColor          = "color"
)

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

// Error joins the messages in field order.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field has a message.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// Err returns fe as an error, or nil when empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) addIfAbsent(field, msg string) {
	if !fe.Has(field) {
		fe[field] = msg
	}
}
