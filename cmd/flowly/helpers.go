package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/flowly/internal/common"
	"github.com/Veraticus/flowly/internal/model"
	"github.com/Veraticus/flowly/internal/storage"
)

// openStorage opens the configured database and brings its schema up to date.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(appConfig.DatabasePath)
	if err != nil {
		return nil, common.NewUserError("Could not open the ledger database", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// withStorage opens storage for the duration of fn.
func withStorage(ctx context.Context, fn func(*storage.SQLiteStorage) error) error {
	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

// findAccount resolves an account by ID or by exact name, falling back to a
// case-insensitive name match when it is unambiguous.
func findAccount(accounts []model.Account, ref string) (model.Account, error) {
	ref = strings.TrimSpace(ref)
	for _, a := range accounts {
		if a.ID == ref || a.Name == ref {
			return a, nil
		}
	}

	var matches []model.Account
	for _, a := range accounts {
		if strings.EqualFold(a.Name, ref) {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return model.Account{}, common.NewUserError(fmt.Sprintf("No account named %q", ref), common.ErrNotFound)
	default:
		return model.Account{}, common.NewUserError(fmt.Sprintf("More than one account matches %q; use its ID", ref), common.ErrInvalidAccount)
	}
}
