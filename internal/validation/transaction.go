package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/flowly/internal/model"
)

// Messages shared by the money exclusivity rule.
const (
	msgMoneyMissing = "Either Money In or Money Out is required."
	msgMoneyBoth    = "Cannot have both Money In and Money Out."
)

// TransactionForm is the raw, unparsed input for a transaction.
type TransactionForm struct {
	Date           string
	Type           string
	CustomerVendor string
	AccountID      string
	MoneyIn        string
	MoneyOut       string
	Units          string
	Notes          string
}

// Rules carries the context a transaction is validated against.
type Rules struct {
	// AccountExists reports whether an account ID resolves. Nil skips the check.
	AccountExists func(id string) bool
	UnitLabel     string
}

func (r Rules) unitLabel() string {
	if r.UnitLabel == "" {
		return model.DefaultUnitLabel
	}
	return r.UnitLabel
}

// ValidateTransaction checks a form against the type rules and returns the
// normalized transaction. The transaction is only meaningful when the
// returned FieldErrors is empty. ID and CreatedAt are left for the caller.
func ValidateTransaction(form TransactionForm, rules Rules) (model.Transaction, FieldErrors) {
	errs := FieldErrors{}
	txn := model.Transaction{
		CustomerVendor: strings.TrimSpace(form.CustomerVendor),
		AccountID:      strings.TrimSpace(form.AccountID),
		Notes:          strings.TrimSpace(form.Notes),
	}

	if strings.TrimSpace(form.Date) == "" {
		errs[FieldDate] = "Date is required"
	} else if date, ok := model.ParseDate(form.Date); ok {
		txn.Date = date
	} else {
		errs[FieldDate] = "Date is not a valid date"
	}

	typ, ok := model.ParseTransactionType(form.Type)
	switch {
	case strings.TrimSpace(form.Type) == "":
		errs[FieldType] = "Type is required"
	case !ok:
		errs[FieldType] = fmt.Sprintf("Type must be one of Sale, Purchase, Expense or Gift, got %q", form.Type)
	default:
		txn.Type = typ
	}

	if txn.AccountID == "" {
		errs[FieldAccountID] = "Account is required"
	} else if rules.AccountExists != nil && !rules.AccountExists(txn.AccountID) {
		errs[FieldAccountID] = "Account does not exist"
	}

	moneyIn, inErr := parseAmount(form.MoneyIn)
	moneyOut, outErr := parseAmount(form.MoneyOut)

	if txn.Type.UsesUnits() {
		units, err := parseAmount(form.Units)
		if strings.TrimSpace(form.Units) == "" || err != nil || !units.IsPositive() {
			errs[FieldUnits] = fmt.Sprintf("Units (%s) must be a positive number", rules.unitLabel())
		}
		txn.Units = units
	} else if units, err := parseAmount(form.Units); err == nil {
		txn.Units = units
	}

	if txn.Type != "" {
		checkMoneyField(errs, FieldMoneyIn, "Money In", txn.Type.AllowsMoneyIn(), form.MoneyIn, moneyIn, inErr, txn.Type)
		checkMoneyField(errs, FieldMoneyOut, "Money Out", txn.Type.AllowsMoneyOut(), form.MoneyOut, moneyOut, outErr, txn.Type)
	}

	hasIn := inErr == nil && moneyIn.IsPositive()
	hasOut := outErr == nil && moneyOut.IsPositive()
	// A field that already failed its own check keeps that message.
	switch {
	case !hasIn && !hasOut:
		errs.addIfAbsent(FieldMoneyIn, msgMoneyMissing)
		errs.addIfAbsent(FieldMoneyOut, msgMoneyMissing)
	case hasIn && hasOut:
		errs.addIfAbsent(FieldMoneyIn, msgMoneyBoth)
		errs.addIfAbsent(FieldMoneyOut, msgMoneyBoth)
	}

	if hasIn {
		txn.MoneyIn = moneyIn
	}
	if hasOut {
		txn.MoneyOut = moneyOut
	}

	return txn, errs
}

func checkMoneyField(errs FieldErrors, field, label string, allowed bool, raw string, v decimal.Decimal, parseErr error, typ model.TransactionType) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	if !allowed {
		if parseErr != nil || !v.IsZero() {
			errs[field] = fmt.Sprintf("%s is not used for %s transactions", label, typ)
		}
		return
	}
	if parseErr != nil || v.IsNegative() {
		errs[field] = label + " must be a non-negative number"
	}
}

// parseAmount parses a decimal field; blank input is zero.
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// FormFromTransaction renders a stored transaction back into form input,
// leaving zero amounts blank.
func FormFromTransaction(t model.Transaction) TransactionForm {
	return TransactionForm{
		Date:           model.FormatDate(t.Date),
		Type:           string(t.Type),
		CustomerVendor: t.CustomerVendor,
		AccountID:      t.AccountID,
		MoneyIn:        blankIfZero(t.MoneyIn),
		MoneyOut:       blankIfZero(t.MoneyOut),
		Units:          blankIfZero(t.Units),
		Notes:          t.Notes,
	}
}

// ValidateTransactionRecord re-checks an existing record.
func ValidateTransactionRecord(t model.Transaction, rules Rules) FieldErrors {
	_, errs := ValidateTransaction(FormFromTransaction(t), rules)
	return errs
}

func blankIfZero(v decimal.Decimal) string {
	if v.IsZero() {
		return ""
	}
	return v.String()
}
