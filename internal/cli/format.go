package cli

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DisplayDateLayout is how dates are shown in tables.
const DisplayDateLayout = "01/02/2006"

// FormatCurrency renders an amount as US dollars with thousands separators,
// e.g. $1,234.56 or -$1.00.
func FormatCurrency(amount decimal.Decimal) string {
	amount = amount.Round(2)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")
	return sign + "$" + groupThousands(whole) + "." + cents
}

// FormatUnits renders a unit quantity with its label, e.g. "12.5 kg".
func FormatUnits(units decimal.Decimal, label string) string {
	return units.String() + " " + label
}

// FormatDate renders a calendar date for display. Unknown dates render as
// N/A.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(DisplayDateLayout)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
