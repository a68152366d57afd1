package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/flowly/internal/ledger"
	"github.com/Veraticus/flowly/internal/model"
)

var windowTitles = map[ledger.Window]string{
	ledger.WindowOverall: "Overall",
	ledger.WindowMonthly: "This Month",
	ledger.WindowWeekly:  "Last 7 Days",
	ledger.WindowDaily:   "Today",
}

// RenderDashboard renders the metric cards, per-window cash flow and the
// balances of active accounts.
func RenderDashboard(m ledger.Metrics, accounts []model.Account, unitLabel string) string {
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card(MoneyIcon+" Dollars per Unit", FormatCurrency(m.DollarsPerUnit), "per "+unitLabel),
		card(BoxIcon+" Units in Stock", m.TotalUnitsInStock.String(), unitLabel),
		card(BankIcon+" Cash Balance", FormatCurrency(m.TotalCashBalance), "all accounts"),
	)

	var flows []string
	for _, w := range ledger.Windows {
		flows = append(flows, card(ChartIcon+" Net Flow: "+windowTitles[w], signed(m.Flow(w)), ""))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		FormatTitle("Dashboard"),
		cards,
		lipgloss.JoinHorizontal(lipgloss.Top, flows...),
		"",
		RenderBalances(accounts),
	)
}

// RenderBalances lists active accounts with their balances.
func RenderBalances(accounts []model.Account) string {
	active := ledger.ActiveAccounts(accounts)
	if len(active) == 0 {
		return SubtleStyle.Render("No active accounts")
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render("Account Balances"))
	for _, a := range active {
		b.WriteString("\n")
		b.WriteString(AccountStyle(a.Color).Render("● "))
		b.WriteString(TableCellStyle.Width(24).Render(a.Name))
		b.WriteString(FormatCurrency(a.Balance))
	}
	return b.String()
}

// RenderInventory renders the unit breakdown by transaction type.
func RenderInventory(stock decimal.Decimal, b ledger.Breakdown, unitLabel string) string {
	rows := [][2]string{
		{"In stock", FormatUnits(stock, unitLabel)},
		{"Purchased", FormatUnits(b.Purchases, unitLabel)},
		{"Sold", FormatUnits(b.Sales, unitLabel)},
		{"Gifted", FormatUnits(b.Gifts, unitLabel)},
	}

	var lines []string
	for _, r := range rows {
		lines = append(lines, TableCellStyle.Width(14).Render(r[0])+BoldStyle.Render(r[1]))
	}
	return RenderBox(BoxIcon+" Inventory", strings.Join(lines, "\n"))
}

// RenderTransactions renders a transaction table.
func RenderTransactions(txns []model.EnrichedTransaction, unitLabel string) string {
	if len(txns) == 0 {
		return SubtleStyle.Render("No transactions")
	}

	widths := []int{12, 10, 22, 18, 12, 12, 10}
	header := []string{"Date", "Type", "Customer/Vendor", "Account", "Money In", "Money Out", unitLabel}

	var b strings.Builder
	b.WriteString(row(header, widths, func(_ int, s string) string { return TableHeaderStyle.Render(s) }))
	for _, t := range txns {
		cells := []string{
			FormatDate(t.Date),
			string(t.Type),
			truncate(t.CustomerVendor, widths[2]-2),
			AccountStyle(t.AccountColor).Render(truncate(t.AccountName, widths[3]-2)),
			blankOr(t.MoneyIn, FormatCurrency),
			blankOr(t.MoneyOut, FormatCurrency),
			blankOr(t.Units, decimal.Decimal.String),
		}
		b.WriteString("\n")
		b.WriteString(row(cells, widths, func(i int, s string) string {
			switch i {
			case 4:
				return SuccessStyle.Render(s)
			case 5:
				return ErrorStyle.Render(s)
			}
			return s
		}))
	}
	return b.String()
}

// RenderAccounts renders the account list, marking the default account.
func RenderAccounts(accounts []model.Account, settings model.Settings) string {
	if len(accounts) == 0 {
		return SubtleStyle.Render("No accounts")
	}

	var b strings.Builder
	for i, a := range accounts {
		if i > 0 {
			b.WriteString("\n")
		}
		status := SuccessStyle.Render("active")
		if !a.IsActive {
			status = SubtleStyle.Render("inactive")
		}
		marker := "  "
		if settings.IsDefaultAccount(a.ID) {
			marker = WarningStyle.Render("★ ")
		}
		fmt.Fprintf(&b, "%s%s%s%s  %s  %s",
			marker,
			AccountStyle(a.Color).Render("● "),
			TableCellStyle.Width(24).Render(a.Name),
			TableCellStyle.Width(14).Render(FormatCurrency(a.Balance)),
			status,
			SubtleStyle.Render(a.ID),
		)
	}
	return b.String()
}

func card(title, value, caption string) string {
	body := SubtitleStyle.Render(title) + "\n" + BoldStyle.Render(value)
	if caption != "" {
		body += "\n" + SubtleStyle.Render(caption)
	}
	return CardStyle.Render(body)
}

func signed(v decimal.Decimal) string {
	switch {
	case v.IsPositive():
		return SuccessStyle.Render("+" + FormatCurrency(v))
	case v.IsNegative():
		return ErrorStyle.Render(FormatCurrency(v))
	default:
		return FormatCurrency(v)
	}
}

func row(cells []string, widths []int, style func(int, string) string) string {
	rendered := make([]string, len(cells))
	for i, c := range cells {
		rendered[i] = TableCellStyle.Width(widths[i]).Render(style(i, c))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func blankOr(v decimal.Decimal, format func(decimal.Decimal) string) string {
	if v.IsZero() {
		return ""
	}
	return format(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
