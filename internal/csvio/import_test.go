package csvio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/flowly/internal/ledger"
	"github.com/Veraticus/flowly/internal/model"
)

var testAccounts = []model.Account{
	{ID: "a1", Name: "Checking", Color: model.ColorBlue},
	{ID: "a2", Name: "Cash Box", Color: model.ColorGreen},
}

var importNow = time.Date(2024, 5, 20, 14, 0, 0, 0, time.UTC)

func TestImport(t *testing.T) {
	input := strings.Join([]string{
		`Date,Type,Customer/Vendor,Account,Money In,Money Out,"Units (kg)",Notes`,
		`2024-01-15,Sale,Jane,Checking,50,,10,first`,
		`2024-01-16,Purchase,Supplier,Cash Box,,120.5,30,`,
		`not-a-date,,,Checking,abc,,,`,
		`2024-01-17,Expense,Landlord,checking,,900,,case mismatch`,
		`2024-01-18,Refund,Someone,Checking,5,,,`,
		``,
	}, "\n")

	result, err := Import(strings.NewReader(input), testAccounts, "kg", importNow)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 4)

	first := result.Transactions[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, model.TypeSale, first.Type)
	assert.Equal(t, "Jane", first.CustomerVendor)
	assert.Equal(t, "a1", first.AccountID)
	assert.True(t, first.MoneyIn.Equal(decimal.NewFromInt(50)))
	assert.True(t, first.Units.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "first", first.Notes)

	second := result.Transactions[1]
	assert.Equal(t, "a2", second.AccountID)
	assert.True(t, second.MoneyOut.Equal(decimal.RequireFromString("120.5")))

	lenient := result.Transactions[2]
	assert.Equal(t, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), lenient.Date, "bad date falls back to today")
	assert.Equal(t, model.TypeSale, lenient.Type, "blank type defaults to Sale")
	assert.Equal(t, "N/A", lenient.CustomerVendor)
	assert.True(t, lenient.MoneyIn.IsZero(), "non numeric money becomes zero")

	assert.Equal(t, model.TypeSale, result.Transactions[3].Type, "unknown type defaults to Sale")

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, SkippedRow{Line: 5, Account: "checking", Reason: SkipUnknownAccount}, result.Skipped[0])
	assert.Equal(t, 1, result.DateFallbacks)

	ids := map[string]bool{}
	for _, txn := range result.Transactions {
		ids[txn.ID] = true
	}
	assert.Len(t, ids, 4, "every imported row gets its own id")
}

func TestImport_OnlyUnknownAccount(t *testing.T) {
	input := "Date,Type,Customer/Vendor,Account,Money In,Money Out,\"Units (units)\",Notes\n" +
		"2024-01-15,Sale,Jane,Nonexistent,50,,10,\n"

	result, err := Import(strings.NewReader(input), []model.Account{{ID: "a1", Name: "Checking"}}, "units", importNow)
	require.ErrorIs(t, err, ErrImportEmpty)
	require.NotNil(t, result)
	assert.Empty(t, result.Transactions)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "Nonexistent", result.Skipped[0].Account)
}

func TestImport_EmptyInputs(t *testing.T) {
	_, err := Import(strings.NewReader(""), testAccounts, "units", importNow)
	assert.ErrorIs(t, err, ErrImportEmpty)

	_, err = Import(strings.NewReader(HeaderLine("units")+"\r\n"), testAccounts, "units", importNow)
	assert.ErrorIs(t, err, ErrImportEmpty)
}

func TestImport_UnitsColumnFromOtherLabel(t *testing.T) {
	input := "\ufeffDate,Type,Account,Money In,Units (boxes)\n2024-02-01,Sale,Checking,10,4\n"

	result, err := Import(strings.NewReader(input), testAccounts, "kg", importNow)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.True(t, result.Transactions[0].Units.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), result.Transactions[0].Date)
}

func TestImport_ShortRowsAndNegativeAmounts(t *testing.T) {
	input := "Date,Type,Customer/Vendor,Account,Money In,Money Out\n" +
		"2024-02-01,Expense,Shop,Checking,,-40\n" +
		"2024-02-02,Gift,Mum,Cash Box\n"

	result, err := Import(strings.NewReader(input), testAccounts, "kg", importNow)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)
	assert.True(t, result.Transactions[0].MoneyOut.IsZero())
	assert.Equal(t, "a2", result.Transactions[1].AccountID)
}

type tuple struct {
	date, typ, account, in, out, units, notes string
}

func tuples(txns []model.EnrichedTransaction) []tuple {
	out := make([]tuple, len(txns))
	for i, t := range txns {
		out[i] = tuple{
			date:    model.FormatDate(t.Date),
			typ:     string(t.Type),
			account: t.AccountName,
			in:      t.MoneyIn.String(),
			out:     t.MoneyOut.String(),
			units:   t.Units.String(),
			notes:   t.Notes,
		}
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	original := []model.Transaction{
		{ID: "t1", Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Type: model.TypeSale, CustomerVendor: "Jane", AccountID: "a1", MoneyIn: d("50"), Units: d("10"), Notes: "a, b"},
		{ID: "t2", Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Type: model.TypePurchase, CustomerVendor: "Supplier", AccountID: "a2", MoneyOut: d("120.75"), Units: d("2.5")},
		{ID: "t3", Date: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), Type: model.TypeExpense, AccountID: "a1", MoneyOut: d("9.99"), Notes: "multi\nline \"quoted\""},
		{ID: "t4", Date: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), Type: model.TypeGift, CustomerVendor: "Mum", AccountID: "a2", MoneyIn: d("100")},
	}

	exported := ledger.Join(original, testAccounts)
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, exported, "kg"))

	result, err := Import(&buf, testAccounts, "kg", importNow)
	require.NoError(t, err)

	reimported := ledger.Join(result.Transactions, testAccounts)
	assert.ElementsMatch(t, tuples(exported), tuples(reimported))
	assert.Empty(t, result.Skipped)
}
