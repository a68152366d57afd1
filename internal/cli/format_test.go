package cli

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "$0.00"},
		{in: "5", want: "$5.00"},
		{in: "1234.56", want: "$1,234.56"},
		{in: "1234567.891", want: "$1,234,567.89"},
		{in: "999.999", want: "$1,000.00"},
		{in: "-1", want: "-$1.00"},
		{in: "-98765.4", want: "-$98,765.40"},
		{in: "-0.001", want: "$0.00"},
		{in: "100000", want: "$100,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "N/A", FormatDate(time.Time{}))
	assert.Equal(t, "01/15/2024", FormatDate(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "12.5 kg", FormatUnits(decimal.RequireFromString("12.5"), "kg"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc…", truncate("abcdefgh", 4))
	assert.Equal(t, "é", truncate("éé", 1))
}
