package validation

import (
	"strings"

	"github.com/Veraticus/flowly/internal/model"
)

// AccountForm is the raw input for creating an account.
type AccountForm struct {
	IsActive *bool // nil means active
	Name     string
	Balance  string
	Color    string // blank means blue
}

// ValidateAccount checks an account form and returns the account it
// describes, without an ID.
func ValidateAccount(form AccountForm) (model.Account, FieldErrors) {
	errs := FieldErrors{}
	acc := model.Account{
		Name:     strings.TrimSpace(form.Name),
		Color:    model.ColorBlue,
		IsActive: true,
	}

	if acc.Name == "" {
		errs[FieldName] = "Account name is required."
	}

	if balance, err := parseAmount(form.Balance); strings.TrimSpace(form.Balance) == "" || err != nil {
		errs[FieldBalance] = "Balance must be a number."
	} else {
		acc.Balance = balance
	}

	if strings.TrimSpace(form.Color) != "" {
		if c, ok := model.ParseAccountColor(form.Color); ok {
			acc.Color = c
		} else {
			errs[FieldColor] = "Color must be one of the palette colors."
		}
	}

	if form.IsActive != nil {
		acc.IsActive = *form.IsActive
	}

	return acc, errs
}

// ValidateAccountPatch checks the fields a partial update sets.
func ValidateAccountPatch(p model.AccountPatch) FieldErrors {
	errs := FieldErrors{}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		errs[FieldName] = "Account name is required."
	}
	if p.Color != nil {
		if _, ok := model.ParseAccountColor(string(*p.Color)); !ok {
			errs[FieldColor] = "Color must be one of the palette colors."
		}
	}
	return errs
}
