// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/flowly/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Account operations
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAccounts(ctx context.Context) ([]model.Account, error)
	UpdateAccount(ctx context.Context, id string, patch model.AccountPatch) (*model.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	// Transaction operations
	AddTransaction(ctx context.Context, txn *model.Transaction) error
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context) ([]model.Transaction, error)
	GetTransactionCount(ctx context.Context) (int, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	// Settings operations
	GetSettings(ctx context.Context) (model.Settings, error)
	UpdateSettings(ctx context.Context, settings model.Settings) error

	// Snapshot returns a consistent view of accounts, transactions and settings.
	Snapshot(ctx context.Context) (*model.Snapshot, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
