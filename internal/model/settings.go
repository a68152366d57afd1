package model

import "strings"

// Theme is the UI colour scheme preference.
type Theme string

// Theme preferences.
const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ParseTheme returns the theme named s.
func ParseTheme(s string) (Theme, bool) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, true
	}
	return "", false
}

// DefaultUnitLabel is the inventory unit label used until the user sets one.
const DefaultUnitLabel = "units"

// Settings is the per-user singleton.
type Settings struct {
	DefaultAccountID *string
	UnitLabel        string
	Theme            Theme
}

// DefaultSettings returns the settings written on first use.
func DefaultSettings() Settings {
	return Settings{
		UnitLabel: DefaultUnitLabel,
		Theme:     ThemeSystem,
	}
}

// Label returns the unit label, falling back to the default when blank.
func (s Settings) Label() string {
	if s.UnitLabel == "" {
		return DefaultUnitLabel
	}
	return s.UnitLabel
}

// IsDefaultAccount reports whether id is the configured default account.
func (s Settings) IsDefaultAccount(id string) bool {
	return s.DefaultAccountID != nil && *s.DefaultAccountID == id
}

// Snapshot is a complete, immutable view of one user's ledger.
type Snapshot struct {
	Accounts     []Account
	Transactions []Transaction
	Settings     Settings
}
