package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/flowly/internal/model"
)

func TestValidateAccount(t *testing.T) {
	acc, errs := ValidateAccount(AccountForm{Name: " Checking ", Balance: "100.50"})
	require.Empty(t, errs)
	assert.Equal(t, "Checking", acc.Name)
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("100.5")))
	assert.Equal(t, model.ColorBlue, acc.Color)
	assert.True(t, acc.IsActive)

	inactive := false
	acc, errs = ValidateAccount(AccountForm{Name: "Card", Balance: "-20", Color: "Pink", IsActive: &inactive})
	require.Empty(t, errs)
	assert.Equal(t, model.ColorPink, acc.Color)
	assert.False(t, acc.IsActive)
	assert.True(t, acc.Balance.IsNegative())

	_, errs = ValidateAccount(AccountForm{Name: "  ", Balance: "", Color: "orange"})
	assert.Equal(t, FieldErrors{
		FieldName:    "Account name is required.",
		FieldBalance: "Balance must be a number.",
		FieldColor:   "Color must be one of the palette colors.",
	}, errs)
}

func TestValidateAccountPatch(t *testing.T) {
	assert.Empty(t, ValidateAccountPatch(model.AccountPatch{}))

	blank := " "
	bad := model.AccountColor("teal")
	errs := ValidateAccountPatch(model.AccountPatch{Name: &blank, Color: &bad})
	assert.True(t, errs.Has(FieldName))
	assert.True(t, errs.Has(FieldColor))
}
