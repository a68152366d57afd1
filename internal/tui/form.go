// Package tui provides the interactive terminal forms used when a command is
// run without the flags it needs.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/flowly/internal/cli"
	"github.com/Veraticus/flowly/internal/model"
	"github.com/Veraticus/flowly/internal/validation"
)

// ErrCanceled is returned when the user leaves a form without saving.
var ErrCanceled = errors.New("form canceled")

var (
	labelStyle        = lipgloss.NewStyle().Width(16).Foreground(cli.SubtleColor)
	focusedLabelStyle = lipgloss.NewStyle().Width(16).Bold(true).Foreground(cli.PrimaryColor)
	fieldErrorStyle   = lipgloss.NewStyle().PaddingLeft(17).Foreground(cli.ErrorColor)
)

const formHelp = "tab/↓ next • shift+tab/↑ back • ←/→ change type • ctrl+s save • esc cancel"

type formField struct {
	input textinput.Model
	key   string
	label string
}

// TransactionForm collects a transaction one field at a time. Submitting runs
// the transaction validator and shows each message under its field; the form
// only finishes once the input is valid.
type TransactionForm struct {
	rules    validation.Rules
	errs     validation.FieldErrors
	title    string
	accounts []model.Account
	fields   []formField
	result   model.Transaction
	focus    int
	done     bool
	canceled bool
}

// NewTransactionForm builds a form prefilled from initial. The account field
// shows the account name and accepts a name or an ID.
func NewTransactionForm(title string, initial validation.TransactionForm, accounts []model.Account, rules validation.Rules) TransactionForm {
	account := initial.AccountID
	for _, a := range accounts {
		if a.ID == initial.AccountID {
			account = a.Name
			break
		}
	}

	unitLabel := rules.UnitLabel
	if unitLabel == "" {
		unitLabel = model.DefaultUnitLabel
	}

	specs := []struct {
		key, label, value, placeholder string
	}{
		{validation.FieldDate, "Date", initial.Date, "YYYY-MM-DD"},
		{validation.FieldType, "Type", initial.Type, "Sale, Purchase, Expense or Gift"},
		{validation.FieldCustomerVendor, "Customer/Vendor", initial.CustomerVendor, "optional"},
		{validation.FieldAccountID, "Account", account, "account name"},
		{validation.FieldMoneyIn, "Money In", initial.MoneyIn, "0.00"},
		{validation.FieldMoneyOut, "Money Out", initial.MoneyOut, "0.00"},
		{validation.FieldUnits, "Units (" + unitLabel + ")", initial.Units, "sales and purchases"},
		{validation.FieldNotes, "Notes", initial.Notes, "optional"},
	}

	fields := make([]formField, 0, len(specs))
	for _, s := range specs {
		input := textinput.New()
		input.Prompt = ""
		input.Placeholder = s.placeholder
		input.CharLimit = 120
		input.SetValue(s.value)
		fields = append(fields, formField{key: s.key, label: s.label, input: input})
	}
	fields[0].input.Focus()

	return TransactionForm{
		title:    title,
		accounts: accounts,
		rules:    rules,
		fields:   fields,
		errs:     validation.FieldErrors{},
	}
}

// Init starts the cursor blinking.
func (m TransactionForm) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles navigation and submission; other keys go to the focused input.
func (m TransactionForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		cmd := m.updateFocused(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch key.String() {
	case "ctrl+c", "esc":
		m.canceled = true
		return m, tea.Quit
	case "tab", "down":
		cmd = m.move(1)
	case "shift+tab", "up":
		cmd = m.move(-1)
	case "enter":
		if m.focus < len(m.fields)-1 {
			cmd = m.move(1)
		} else {
			cmd = m.submit()
		}
	case "ctrl+s":
		cmd = m.submit()
	case "left", "right":
		if m.fields[m.focus].key == validation.FieldType {
			m.cycleType(key.String() == "right")
			return m, nil
		}
		cmd = m.updateFocused(msg)
	default:
		cmd = m.updateFocused(msg)
	}
	return m, cmd
}

func (m *TransactionForm) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
	return cmd
}

func (m *TransactionForm) move(delta int) tea.Cmd {
	return m.focusField((m.focus + delta + len(m.fields)) % len(m.fields))
}

func (m *TransactionForm) focusField(i int) tea.Cmd {
	m.fields[m.focus].input.Blur()
	m.focus = i
	return m.fields[i].input.Focus()
}

func (m *TransactionForm) cycleType(forward bool) {
	input := &m.fields[m.focus].input
	n := len(model.TransactionTypes)

	idx := -1
	if typ, ok := model.ParseTransactionType(input.Value()); ok {
		for i, t := range model.TransactionTypes {
			if t == typ {
				idx = i
			}
		}
	}

	switch {
	case forward:
		idx = (idx + 1) % n
	case idx < 0:
		idx = n - 1
	default:
		idx = (idx - 1 + n) % n
	}
	input.SetValue(string(model.TransactionTypes[idx]))
	input.CursorEnd()
}

// submit validates the current input. On failure the first field with a
// message takes focus.
func (m *TransactionForm) submit() tea.Cmd {
	txn, errs := validation.ValidateTransaction(m.Form(), m.rules)
	m.errs = errs
	if len(errs) > 0 {
		for i, f := range m.fields {
			if errs.Has(f.key) {
				return m.focusField(i)
			}
		}
		return nil
	}

	m.result = txn
	m.done = true
	return tea.Quit
}

// Form returns the current raw input with the account resolved to its ID.
func (m TransactionForm) Form() validation.TransactionForm {
	value := func(key string) string {
		for _, f := range m.fields {
			if f.key == key {
				return f.input.Value()
			}
		}
		return ""
	}

	return validation.TransactionForm{
		Date:           value(validation.FieldDate),
		Type:           value(validation.FieldType),
		CustomerVendor: value(validation.FieldCustomerVendor),
		AccountID:      resolveAccount(m.accounts, value(validation.FieldAccountID)),
		MoneyIn:        value(validation.FieldMoneyIn),
		MoneyOut:       value(validation.FieldMoneyOut),
		Units:          value(validation.FieldUnits),
		Notes:          value(validation.FieldNotes),
	}
}

// resolveAccount maps a typed account name to its ID. Input that names no
// account is returned unchanged so validation can report it.
func resolveAccount(accounts []model.Account, ref string) string {
	ref = strings.TrimSpace(ref)
	var match string
	matches := 0
	for _, a := range accounts {
		if a.ID == ref || a.Name == ref {
			return a.ID
		}
		if strings.EqualFold(a.Name, ref) {
			match = a.ID
			matches++
		}
	}
	if matches == 1 {
		return match
	}
	return ref
}

// Errors returns the messages from the last submit.
func (m TransactionForm) Errors() validation.FieldErrors {
	return m.errs
}

// Focused returns the key of the field that has focus.
func (m TransactionForm) Focused() string {
	return m.fields[m.focus].key
}

// Result returns the validated transaction once the form has been submitted.
func (m TransactionForm) Result() (model.Transaction, bool) {
	return m.result, m.done
}

// Canceled reports whether the user left the form.
func (m TransactionForm) Canceled() bool {
	return m.canceled
}

// View renders the form with inline validation messages.
func (m TransactionForm) View() string {
	if m.done || m.canceled {
		return ""
	}

	var b strings.Builder
	b.WriteString(cli.FormatTitle(m.title))
	b.WriteString("\n")
	for i, f := range m.fields {
		style := labelStyle
		if i == m.focus {
			style = focusedLabelStyle
		}
		b.WriteString(style.Render(f.label))
		b.WriteString(" ")
		b.WriteString(f.input.View())
		b.WriteString("\n")
		if msg, ok := m.errs[f.key]; ok {
			b.WriteString(fieldErrorStyle.Render(msg))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(cli.SubtleStyle.Render(formHelp))
	b.WriteString("\n")
	return b.String()
}

// RunTransactionForm runs form until the user saves valid input or leaves.
// It returns ErrCanceled when the form was left without saving.
func RunTransactionForm(ctx context.Context, in io.Reader, out io.Writer, form TransactionForm) (model.Transaction, error) {
	p := tea.NewProgram(form,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := p.Run()
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to run transaction form: %w", err)
	}

	result, ok := final.(TransactionForm)
	if !ok || result.canceled {
		return model.Transaction{}, ErrCanceled
	}
	txn, done := result.Result()
	if !done {
		return model.Transaction{}, ErrCanceled
	}
	return txn, nil
}
