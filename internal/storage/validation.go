// Package storage provides the data persistence layer for the flowly ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/flowly/internal/common"
	"github.com/Veraticus/flowly/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrEmptySlice   = errors.New("slice cannot be empty")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateAccount(account *model.Account) error {
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if strings.TrimSpace(account.Name) == "" {
		return fmt.Errorf("%w: missing name", common.ErrInvalidAccount)
	}
	if _, ok := model.ParseAccountColor(string(account.Color)); !ok {
		return fmt.Errorf("%w: unknown color %q", common.ErrInvalidAccount, account.Color)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction checks the fields storage depends on. Money rules are
// enforced by the validation package before records reach this layer.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", common.ErrInvalidTransaction)
	}
	if txn.AccountID == "" {
		return fmt.Errorf("%w: missing account ID", common.ErrInvalidTransaction)
	}
	if _, ok := model.ParseTransactionType(string(txn.Type)); !ok {
		return fmt.Errorf("%w: unknown type %q", common.ErrInvalidTransaction, txn.Type)
	}
	if txn.MoneyIn.IsNegative() || txn.MoneyOut.IsNegative() || txn.Units.IsNegative() {
		return fmt.Errorf("%w: negative amount", common.ErrInvalidTransaction)
	}
	return nil
}

func validateSettings(settings model.Settings) error {
	if strings.TrimSpace(settings.UnitLabel) == "" {
		return fmt.Errorf("%w: unit label cannot be empty", common.ErrInvalidConfig)
	}
	if _, ok := model.ParseTheme(string(settings.Theme)); !ok {
		return fmt.Errorf("%w: unknown theme %q", common.ErrInvalidConfig, settings.Theme)
	}
	return nil
}
