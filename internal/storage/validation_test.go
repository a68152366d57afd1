package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/flowly/internal/common"
	"github.com/Veraticus/flowly/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "test"},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: "  \t\n", wantErr: true},
		{name: "padded value", str: "  id  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "param")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmptyString) {
				t.Errorf("validateString() error = %v, want ErrEmptyString", err)
			}
		})
	}
}

func TestValidateAccount(t *testing.T) {
	tests := []struct {
		account *model.Account
		wantErr error
		name    string
	}{
		{
			name:    "valid",
			account: &model.Account{Name: "Checking", Color: model.ColorBlue},
		},
		{
			name:    "nil",
			account: nil,
			wantErr: ErrNilParameter,
		},
		{
			name:    "blank name",
			account: &model.Account{Name: "  ", Color: model.ColorBlue},
			wantErr: common.ErrInvalidAccount,
		},
		{
			name:    "color outside palette",
			account: &model.Account{Name: "Savings", Color: model.ColorNeutral},
			wantErr: common.ErrInvalidAccount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAccount(tt.account)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validateAccount() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateAccount() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	valid := model.Transaction{
		ID:        "t1",
		Type:      model.TypeSale,
		AccountID: "a1",
		MoneyIn:   decimal.NewFromInt(10),
	}

	tests := []struct {
		modify  func(*model.Transaction)
		name    string
		wantErr bool
	}{
		{name: "valid", modify: func(*model.Transaction) {}},
		{name: "missing ID", modify: func(t *model.Transaction) { t.ID = "" }, wantErr: true},
		{name: "missing account", modify: func(t *model.Transaction) { t.AccountID = "" }, wantErr: true},
		{name: "unknown type", modify: func(t *model.Transaction) { t.Type = "Refund" }, wantErr: true},
		{name: "negative units", modify: func(t *model.Transaction) { t.Units = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "zero date allowed", modify: func(t *model.Transaction) { t.Date = model.Transaction{}.Date }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := valid
			tt.modify(&txn)
			err := validateTransaction(&txn)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTransaction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, common.ErrInvalidTransaction) {
				t.Errorf("validateTransaction() error = %v, want ErrInvalidTransaction", err)
			}
		})
	}
}

func TestValidateTransactions(t *testing.T) {
	if err := validateTransactions(nil); !errors.Is(err, ErrNilParameter) {
		t.Errorf("validateTransactions(nil) error = %v, want ErrNilParameter", err)
	}
	if err := validateTransactions([]model.Transaction{}); !errors.Is(err, ErrEmptySlice) {
		t.Errorf("validateTransactions(empty) error = %v, want ErrEmptySlice", err)
	}
}

func TestValidateSettings(t *testing.T) {
	if err := validateSettings(model.DefaultSettings()); err != nil {
		t.Errorf("validateSettings(defaults) error = %v", err)
	}
	bad := model.DefaultSettings()
	bad.UnitLabel = " "
	if err := validateSettings(bad); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("validateSettings(blank label) error = %v, want ErrInvalidConfig", err)
	}
	bad = model.DefaultSettings()
	bad.Theme = "neon"
	if err := validateSettings(bad); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("validateSettings(bad theme) error = %v, want ErrInvalidConfig", err)
	}
}
