package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/flowly/internal/common"
	"github.com/Veraticus/flowly/internal/model"
)

// CreateAccount inserts a new account. A missing ID or creation time is
// filled in.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, name, balance, color, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, account.ID, account.Name, account.Balance.String(), string(account.Color), account.IsActive, account.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert account %s: %w", account.ID, err)
		}
		return nil
	})
}

// GetAccount returns the account with the given ID.
func (s *SQLiteStorage) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getAccountTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getAccountTx(ctx context.Context, q queryable, id string) (*model.Account, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, balance, color, is_active, created_at
		FROM accounts WHERE id = ?
	`, id)

	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return &account, nil
}

// GetAccounts returns all accounts in creation order.
func (s *SQLiteStorage) GetAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getAccountsTx(ctx, s.db)
}

func (s *SQLiteStorage) getAccountsTx(ctx context.Context, q queryable) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, balance, color, is_active, created_at
		FROM accounts ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := []model.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// UpdateAccount applies a partial update and returns the stored result.
func (s *SQLiteStorage) UpdateAccount(ctx context.Context, id string, patch model.AccountPatch) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var updated model.Account
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := s.getAccountTx(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = patch.Apply(*current)
		if err := validateAccount(&updated); err != nil {
			return err
		}
		if patch.IsEmpty() {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE accounts SET name = ?, balance = ?, color = ?, is_active = ?
			WHERE id = ?
		`, updated.Name, updated.Balance.String(), string(updated.Color), updated.IsActive, id)
		if err != nil {
			return fmt.Errorf("failed to update account %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAccount removes an account. The default account cannot be deleted.
// Transactions that reference the account are kept.
func (s *SQLiteStorage) DeleteAccount(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		settings, err := s.getSettingsTx(ctx, tx)
		if err != nil {
			return err
		}
		if settings.IsDefaultAccount(id) {
			return fmt.Errorf("cannot delete account %s: %w", id, common.ErrDefaultAccount)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete account %s: %w", id, err)
		}
		return expectOneRow(result, "account", id)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (model.Account, error) {
	var (
		account   model.Account
		color     string
		createdAt sql.NullTime
	)
	if err := row.Scan(&account.ID, &account.Name, &account.Balance, &color, &account.IsActive, &createdAt); err != nil {
		return model.Account{}, err
	}
	account.Color = model.AccountColor(color)
	if createdAt.Valid {
		account.CreatedAt = createdAt.Time
	}
	return account, nil
}
