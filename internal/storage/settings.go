package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/flowly/internal/model"
)

// GetSettings returns the settings singleton, or the defaults when none has
// been written.
func (s *SQLiteStorage) GetSettings(ctx context.Context) (model.Settings, error) {
	if err := validateContext(ctx); err != nil {
		return model.Settings{}, err
	}
	return s.getSettingsTx(ctx, s.db)
}

func (s *SQLiteStorage) getSettingsTx(ctx context.Context, q queryable) (model.Settings, error) {
	var (
		defaultAccount sql.NullString
		unitLabel      string
		theme          string
	)
	err := q.QueryRowContext(ctx, `
		SELECT default_account_id, unit_label, theme FROM settings WHERE id = 1
	`).Scan(&defaultAccount, &unitLabel, &theme)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	settings := model.DefaultSettings()
	if defaultAccount.Valid && defaultAccount.String != "" {
		id := defaultAccount.String
		settings.DefaultAccountID = &id
	}
	if unitLabel != "" {
		settings.UnitLabel = unitLabel
	}
	if t, ok := model.ParseTheme(theme); ok {
		settings.Theme = t
	}
	return settings, nil
}

// UpdateSettings replaces the settings singleton. A default account, when
// set, must exist.
func (s *SQLiteStorage) UpdateSettings(ctx context.Context, settings model.Settings) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	settings.UnitLabel = strings.TrimSpace(settings.UnitLabel)
	if t, ok := model.ParseTheme(string(settings.Theme)); ok {
		settings.Theme = t
	}
	if err := validateSettings(settings); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var defaultAccount sql.NullString
		if settings.DefaultAccountID != nil {
			if err := requireAccount(ctx, tx, *settings.DefaultAccountID); err != nil {
				return err
			}
			defaultAccount = sql.NullString{String: *settings.DefaultAccountID, Valid: true}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (id, default_account_id, unit_label, theme, updated_at)
			VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO UPDATE SET
				default_account_id = excluded.default_account_id,
				unit_label = excluded.unit_label,
				theme = excluded.theme,
				updated_at = CURRENT_TIMESTAMP
		`, defaultAccount, settings.UnitLabel, string(settings.Theme))
		if err != nil {
			return fmt.Errorf("failed to update settings: %w", err)
		}
		return nil
	})
}
