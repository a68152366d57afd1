// Package testutil provides a seeded, in-memory ledger database for tests of
// packages that sit on top of storage.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/flowly/internal/model"
	"github.com/Veraticus/flowly/internal/storage"
)

// TestDB is a migrated in-memory database plus the accounts seeded into it.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	t        *testing.T
	accounts map[string]model.Account
}

// SetupTestDB creates an empty, migrated in-memory database that is closed
// when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	checking := db.AddAccount("Checking", "1000")
//	db.AddTransaction(testutil.Sale("2024-01-15", checking.ID, "50", "10"))
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage:  store,
		t:        t,
		accounts: make(map[string]model.Account),
	}
}

// AddAccount creates an active blue account with the given balance.
func (db *TestDB) AddAccount(name, balance string) model.Account {
	db.t.Helper()

	account := model.Account{
		Name:     name,
		Balance:  mustDecimal(db.t, balance),
		Color:    model.ColorBlue,
		IsActive: true,
	}
	if err := db.Storage.CreateAccount(context.Background(), &account); err != nil {
		db.t.Fatalf("failed to seed account %q: %v", name, err)
	}
	db.accounts[name] = account
	return account
}

// MustGetAccount returns a seeded account by name or fails the test.
func (db *TestDB) MustGetAccount(name string) model.Account {
	db.t.Helper()
	account, ok := db.accounts[name]
	if !ok {
		db.t.Fatalf("account %q was not seeded", name)
	}
	return account
}

// AddTransaction stores txn, filling in its ID.
func (db *TestDB) AddTransaction(txn model.Transaction) model.Transaction {
	db.t.Helper()
	if err := db.Storage.AddTransaction(context.Background(), &txn); err != nil {
		db.t.Fatalf("failed to seed transaction: %v", err)
	}
	return txn
}

// SetDefaultAccount marks a seeded account as the default.
func (db *TestDB) SetDefaultAccount(name string) {
	db.t.Helper()
	ctx := context.Background()
	id := db.MustGetAccount(name).ID

	settings, err := db.Storage.GetSettings(ctx)
	if err != nil {
		db.t.Fatalf("failed to read settings: %v", err)
	}
	settings.DefaultAccountID = &id
	if err := db.Storage.UpdateSettings(ctx, settings); err != nil {
		db.t.Fatalf("failed to set default account: %v", err)
	}
}

// Sale builds a Sale transaction. Amounts are decimal strings.
func Sale(date, accountID, moneyIn, units string) model.Transaction {
	return model.Transaction{
		Date:      mustDate(date),
		Type:      model.TypeSale,
		AccountID: accountID,
		MoneyIn:   decimal.RequireFromString(moneyIn),
		Units:     decimal.RequireFromString(units),
	}
}

// Purchase builds a Purchase transaction.
func Purchase(date, accountID, moneyOut, units string) model.Transaction {
	return model.Transaction{
		Date:      mustDate(date),
		Type:      model.TypePurchase,
		AccountID: accountID,
		MoneyOut:  decimal.RequireFromString(moneyOut),
		Units:     decimal.RequireFromString(units),
	}
}

// Expense builds an Expense transaction.
func Expense(date, accountID, moneyOut string) model.Transaction {
	return model.Transaction{
		Date:      mustDate(date),
		Type:      model.TypeExpense,
		AccountID: accountID,
		MoneyOut:  decimal.RequireFromString(moneyOut),
	}
}

// Gift builds a Gift transaction.
func Gift(date, accountID, moneyIn string) model.Transaction {
	return model.Transaction{
		Date:      mustDate(date),
		Type:      model.TypeGift,
		AccountID: accountID,
		MoneyIn:   decimal.RequireFromString(moneyIn),
	}
}

// mustDate parses YYYY-MM-DD; blank means an unknown date.
func mustDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	d, ok := model.ParseDate(s)
	if !ok {
		panic("testutil: invalid date " + s)
	}
	return d
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}
