package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountColor is the display tag of an account.
type AccountColor string

// Account palette.
const (
	ColorRed    AccountColor = "red"
	ColorBlue   AccountColor = "blue"
	ColorGreen  AccountColor = "green"
	ColorYellow AccountColor = "yellow"
	ColorPurple AccountColor = "purple"
	ColorIndigo AccountColor = "indigo"
	ColorPink   AccountColor = "pink"

	// ColorNeutral is used when an account cannot be resolved.
	ColorNeutral AccountColor = "gray"
)

// AccountColors is the fixed palette in picker order.
var AccountColors = []AccountColor{
	ColorBlue, ColorGreen, ColorRed, ColorYellow, ColorPurple, ColorIndigo, ColorPink,
}

// ParseAccountColor returns the palette entry named s.
func ParseAccountColor(s string) (AccountColor, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range AccountColors {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Account holds money. Its balance is authoritative and is not derived from
// transactions.
type Account struct {
	CreatedAt time.Time
	Balance   decimal.Decimal
	ID        string
	Name      string
	Color     AccountColor
	IsActive  bool
}

// AccountPatch is a partial account update; nil fields are left unchanged.
type AccountPatch struct {
	Name     *string
	Balance  *decimal.Decimal
	Color    *AccountColor
	IsActive *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p AccountPatch) IsEmpty() bool {
	return p.Name == nil && p.Balance == nil && p.Color == nil && p.IsActive == nil
}

// Apply returns a copy of a with the patch applied.
func (p AccountPatch) Apply(a Account) Account {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Balance != nil {
		a.Balance = *p.Balance
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	return a
}
