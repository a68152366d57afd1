package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/flowly/internal/model"
)

func validSale() TransactionForm {
	return TransactionForm{
		Date:           "2024-01-15",
		Type:           "Sale",
		CustomerVendor: "  Jane Doe ",
		AccountID:      "a1",
		MoneyIn:        "50",
		Units:          "10",
		Notes:          "first order",
	}
}

func TestValidateTransaction_Valid(t *testing.T) {
	txn, errs := ValidateTransaction(validSale(), Rules{UnitLabel: "kg"})
	require.Empty(t, errs)
	require.NoError(t, errs.Err())

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), txn.Date)
	assert.Equal(t, model.TypeSale, txn.Type)
	assert.Equal(t, "Jane Doe", txn.CustomerVendor)
	assert.Equal(t, "a1", txn.AccountID)
	assert.True(t, txn.MoneyIn.Equal(decimal.NewFromInt(50)))
	assert.True(t, txn.MoneyOut.IsZero())
	assert.True(t, txn.Units.Equal(decimal.NewFromInt(10)))
}

func TestValidateTransaction_Rules(t *testing.T) {
	tests := []struct {
		modify     func(*TransactionForm)
		wantFields map[string]string
		name       string
	}{
		{
			name:       "missing date type and account",
			modify:     func(f *TransactionForm) { f.Date, f.Type, f.AccountID = "", "", "" },
			wantFields: map[string]string{FieldDate: "Date is required", FieldType: "Type is required", FieldAccountID: "Account is required"},
		},
		{
			name:       "unparseable date",
			modify:     func(f *TransactionForm) { f.Date = "someday" },
			wantFields: map[string]string{FieldDate: "Date is not a valid date"},
		},
		{
			name:       "sale without units",
			modify:     func(f *TransactionForm) { f.Units = "" },
			wantFields: map[string]string{FieldUnits: "Units (kg) must be a positive number"},
		},
		{
			name:       "sale with zero units",
			modify:     func(f *TransactionForm) { f.Units = "0" },
			wantFields: map[string]string{FieldUnits: "Units (kg) must be a positive number"},
		},
		{
			name:       "sale with non numeric units",
			modify:     func(f *TransactionForm) { f.Units = "ten" },
			wantFields: map[string]string{FieldUnits: "Units (kg) must be a positive number"},
		},
		{
			name:       "sale with both money fields",
			modify:     func(f *TransactionForm) { f.MoneyOut = "5" },
			wantFields: map[string]string{FieldMoneyIn: msgMoneyBoth, FieldMoneyOut: "Money Out is not used for Sale transactions"},
		},
		{
			name:       "sale with malformed money in",
			modify:     func(f *TransactionForm) { f.MoneyIn = "abc" },
			wantFields: map[string]string{FieldMoneyIn: "Money In must be a non-negative number", FieldMoneyOut: msgMoneyMissing},
		},
		{
			name:       "gift with negative money in",
			modify:     func(f *TransactionForm) { f.Type, f.Units, f.MoneyIn = "Gift", "", "-5" },
			wantFields: map[string]string{FieldMoneyIn: "Money In must be a non-negative number", FieldMoneyOut: msgMoneyMissing},
		},

		{
			name:       "neither money field",
			modify:     func(f *TransactionForm) { f.MoneyIn = "" },
			wantFields: map[string]string{FieldMoneyIn: msgMoneyMissing, FieldMoneyOut: msgMoneyMissing},
		},
		{
			name:       "zero money counts as absent",
			modify:     func(f *TransactionForm) { f.MoneyIn = "0" },
			wantFields: map[string]string{FieldMoneyIn: msgMoneyMissing, FieldMoneyOut: msgMoneyMissing},
		},
		{
			name: "purchase with money in",
			modify: func(f *TransactionForm) {
				f.Type = "Purchase"
			},
			wantFields: map[string]string{FieldMoneyIn: "Money In is not used for Purchase transactions"},
		},
		{
			name:       "unknown type",
			modify:     func(f *TransactionForm) { f.Type = "Refund" },
			wantFields: map[string]string{FieldType: `Type must be one of Sale, Purchase, Expense or Gift, got "Refund"`},
		},
		{
			name:       "account that does not exist",
			modify:     func(f *TransactionForm) { f.AccountID = "ghost" },
			wantFields: map[string]string{FieldAccountID: "Account does not exist"},
		},
	}

	rules := Rules{
		UnitLabel:     "kg",
		AccountExists: func(id string) bool { return id == "a1" },
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validSale()
			tt.modify(&form)

			_, errs := ValidateTransaction(form, rules)
			assert.Equal(t, FieldErrors(tt.wantFields), errs)
			assert.Error(t, errs.Err())
		})
	}
}

func TestValidateTransaction_TypesWithoutUnits(t *testing.T) {
	expense := TransactionForm{Date: "2024-02-01", Type: "Expense", AccountID: "a1", MoneyOut: "12.50", Units: "oops"}
	txn, errs := ValidateTransaction(expense, Rules{})
	require.Empty(t, errs)
	assert.True(t, txn.Units.IsZero())
	assert.True(t, txn.MoneyOut.Equal(decimal.RequireFromString("12.5")))

	gift := TransactionForm{Date: "2024-02-01", Type: "gift", AccountID: "a1", MoneyIn: "20", Units: "3"}
	txn, errs = ValidateTransaction(gift, Rules{})
	require.Empty(t, errs)
	assert.Equal(t, model.TypeGift, txn.Type)
	assert.True(t, txn.Units.Equal(decimal.NewFromInt(3)))

	negative := TransactionForm{Date: "2024-02-01", Type: "Expense", AccountID: "a1", MoneyOut: "-3"}
	_, errs = ValidateTransaction(negative, Rules{})
	assert.True(t, errs.Has(FieldMoneyOut))
}

func TestValidateTransactionRecord_Idempotent(t *testing.T) {
	txn, errs := ValidateTransaction(validSale(), Rules{})
	require.Empty(t, errs)

	assert.Empty(t, ValidateTransactionRecord(txn, Rules{}))

	txn.MoneyOut = decimal.NewFromInt(1)
	errs = ValidateTransactionRecord(txn, Rules{})
	assert.True(t, errs.Has(FieldMoneyIn))
	assert.True(t, errs.Has(FieldMoneyOut))
}

func TestFieldErrors_Error(t *testing.T) {
	errs := FieldErrors{FieldUnits: "bad units", FieldDate: "bad date"}
	assert.Equal(t, "validation failed: date: bad date; units: bad units", errs.Error())
	assert.NoError(t, FieldErrors{}.Err())
}
