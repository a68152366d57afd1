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

const transactionColumns = `id, date, type, customer_vendor, account_id,
	money_in, money_out, units, notes, created_at`

// AddTransaction stores a single new transaction. Its account must exist.
func (s *SQLiteStorage) AddTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	prepareTransaction(txn)
	if err := validateTransaction(txn); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireAccount(ctx, tx, txn.AccountID); err != nil {
			return err
		}
		return insertTransaction(ctx, tx, txn)
	})
}

// SaveTransactions stores a batch of new transactions atomically. Every
// referenced account must exist.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range transactions {
		prepareTransaction(&transactions[i])
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		checked := make(map[string]bool)
		for i := range transactions {
			txn := &transactions[i]
			if !checked[txn.AccountID] {
				if err := requireAccount(ctx, tx, txn.AccountID); err != nil {
					return err
				}
				checked[txn.AccountID] = true
			}
			if err := insertTransaction(ctx, tx, txn); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetTransaction returns the transaction with the given ID.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return &txn, nil
}

// GetTransactions returns every transaction in insertion order.
func (s *SQLiteStorage) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getTransactionsTx(ctx, s.db)
}

func (s *SQLiteStorage) getTransactionsTx(ctx context.Context, q queryable) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transactions := []model.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

// GetTransactionCount returns the number of stored transactions.
func (s *SQLiteStorage) GetTransactionCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// UpdateTransaction replaces the stored fields of an existing transaction.
// The account is not re-checked; it may since have been deleted.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET date = ?, type = ?, customer_vendor = ?, account_id = ?,
			    money_in = ?, money_out = ?, units = ?, notes = ?
			WHERE id = ?
		`,
			model.FormatDate(txn.Date), string(txn.Type), txn.CustomerVendor, txn.AccountID,
			txn.MoneyIn.String(), txn.MoneyOut.String(), txn.Units.String(), txn.Notes,
			txn.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
		}
		return expectOneRow(result, "transaction", txn.ID)
	})
}

// DeleteTransaction removes a transaction.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete transaction %s: %w", id, err)
		}
		return expectOneRow(result, "transaction", id)
	})
}

func prepareTransaction(txn *model.Transaction) {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
}

func requireAccount(ctx context.Context, q queryable, accountID string) error {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = ?`, accountID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: account %s does not exist", common.ErrInvalidAccount, accountID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up account %s: %w", accountID, err)
	}
	return nil
}

func insertTransaction(ctx context.Context, q queryable, txn *model.Transaction) error {
	_, err := q.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, model.FormatDate(txn.Date), string(txn.Type), txn.CustomerVendor, txn.AccountID,
		txn.MoneyIn.String(), txn.MoneyOut.String(), txn.Units.String(), txn.Notes, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}
	return nil
}

func expectOneRow(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, common.ErrNotFound)
	}
	return nil
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var (
		txn       model.Transaction
		date, typ string
		createdAt sql.NullTime
	)
	err := row.Scan(
		&txn.ID, &date, &typ, &txn.CustomerVendor, &txn.AccountID,
		&txn.MoneyIn, &txn.MoneyOut, &txn.Units, &txn.Notes, &createdAt,
	)
	if err != nil {
		return model.Transaction{}, err
	}
	txn.Type = model.TransactionType(typ)
	if parsed, ok := model.ParseDate(date); ok {
		txn.Date = parsed
	}
	if createdAt.Valid {
		txn.CreatedAt = createdAt.Time
	}
	return txn, nil
}
