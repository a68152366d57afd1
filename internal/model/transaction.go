package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the business classification of a ledger entry.
type TransactionType string

const (
	// TypeSale is money in for units sold.
	TypeSale TransactionType = "Sale"
	// TypePurchase is money out for units bought into stock.
	TypePurchase TransactionType = "Purchase"
	// TypeExpense is money out with no inventory effect.
	TypeExpense TransactionType = "Expense"
	// TypeGift is money in with no inventory effect.
	TypeGift TransactionType = "Gift"
)

// TransactionTypes lists every type in display order.
var TransactionTypes = []TransactionType{TypeSale, TypePurchase, TypeExpense, TypeGift}

// ParseTransactionType matches s against the known types, ignoring case and
// surrounding whitespace.
func ParseTransactionType(s string) (TransactionType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range TransactionTypes {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// UsesUnits reports whether units are required and counted for this type.
func (t TransactionType) UsesUnits() bool {
	return t == TypeSale || t == TypePurchase
}

// AllowsMoneyIn reports whether the type may carry an inflow.
func (t TransactionType) AllowsMoneyIn() bool {
	return t == TypeSale || t == TypeGift
}

// AllowsMoneyOut reports whether the type may carry an outflow.
func (t TransactionType) AllowsMoneyOut() bool {
	return t == TypePurchase || t == TypeExpense
}

// Transaction is a single ledger entry. Zero money or units values mean the
// field is absent.
type Transaction struct {
	Date           time.Time // calendar date, see CalendarDate; zero if unknown
	CreatedAt      time.Time
	MoneyIn        decimal.Decimal
	MoneyOut       decimal.Decimal
	Units          decimal.Decimal
	ID             string
	Type           TransactionType
	CustomerVendor string
	AccountID      string
	Notes          string
}

// Amount is the absolute cash movement of the transaction.
func (t Transaction) Amount() decimal.Decimal {
	return t.MoneyIn.Add(t.MoneyOut)
}

// NetFlow is money in minus money out.
func (t Transaction) NetFlow() decimal.Decimal {
	return t.MoneyIn.Sub(t.MoneyOut)
}

// HasDate reports whether the transaction carries a usable calendar date.
func (t Transaction) HasDate() bool {
	return !t.Date.IsZero()
}

// EnrichedTransaction is a transaction joined with its account's display data.
type EnrichedTransaction struct {
	AccountName  string
	AccountColor AccountColor
	Transaction
}
