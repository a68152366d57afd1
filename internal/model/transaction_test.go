package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		input  string
		want   TransactionType
		wantOK bool
	}{
		{"Sale", TypeSale, true},
		{"purchase", TypePurchase, true},
		{" EXPENSE ", TypeExpense, true},
		{"Gift", TypeGift, true},
		{"", "", false},
		{"Refund", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTransactionType(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransactionTypeRules(t *testing.T) {
	assert.True(t, TypeSale.UsesUnits())
	assert.True(t, TypePurchase.UsesUnits())
	assert.False(t, TypeExpense.UsesUnits())
	assert.False(t, TypeGift.UsesUnits())

	assert.True(t, TypeSale.AllowsMoneyIn())
	assert.True(t, TypeGift.AllowsMoneyIn())
	assert.False(t, TypePurchase.AllowsMoneyIn())

	assert.True(t, TypePurchase.AllowsMoneyOut())
	assert.True(t, TypeExpense.AllowsMoneyOut())
	assert.False(t, TypeSale.AllowsMoneyOut())
}

func TestTransactionAmounts(t *testing.T) {
	txn := Transaction{MoneyIn: decimal.NewFromInt(50)}
	assert.True(t, txn.Amount().Equal(decimal.NewFromInt(50)))
	assert.True(t, txn.NetFlow().Equal(decimal.NewFromInt(50)))

	txn = Transaction{MoneyOut: decimal.RequireFromString("12.5")}
	assert.True(t, txn.NetFlow().Equal(decimal.RequireFromString("-12.5")))
	assert.False(t, txn.HasDate())
}

func TestAccountPatch(t *testing.T) {
	acc := Account{ID: "a1", Name: "Checking", Balance: decimal.NewFromInt(100), Color: ColorBlue, IsActive: true}

	assert.True(t, AccountPatch{}.IsEmpty())
	assert.Equal(t, acc, AccountPatch{}.Apply(acc))

	name := "Savings"
	inactive := false
	got := AccountPatch{Name: &name, IsActive: &inactive}.Apply(acc)
	assert.Equal(t, "Savings", got.Name)
	assert.False(t, got.IsActive)
	assert.Equal(t, ColorBlue, got.Color)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))
}

func TestSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, "units", s.Label())
	assert.Equal(t, ThemeSystem, s.Theme)
	assert.False(t, s.IsDefaultAccount("a1"))

	id := "a1"
	s.DefaultAccountID = &id
	assert.True(t, s.IsDefaultAccount("a1"))
	assert.Equal(t, "units", Settings{}.Label())

	c, ok := ParseAccountColor(" Indigo ")
	assert.True(t, ok)
	assert.Equal(t, ColorIndigo, c)
	_, ok = ParseAccountColor("orange")
	assert.False(t, ok)
}
