package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/flowly/internal/cli"
	"github.com/Veraticus/flowly/internal/common"
	"github.com/Veraticus/flowly/internal/ledger"
	"github.com/Veraticus/flowly/internal/model"
	"github.com/Veraticus/flowly/internal/storage"
)

func metricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "metrics",
		Aliases: []string{"dashboard"},
		Short:   "Show the cash flow and inventory dashboard",
		Long: `Show dollars per unit, units in stock, total cash balance and net
cash flow for the overall, monthly, weekly and daily windows.

Windows are measured from today in the configured time zone; --as-of
replays the dashboard for another day.`,
		RunE: runMetrics,
	}

	cmd.Flags().String("as-of", "", "Compute windows relative to this date (YYYY-MM-DD)")
	cmd.Flags().String("window", "", "Print only the net cash flow for one window (overall, monthly, weekly, daily)")
	cmd.Flags().Bool("json", false, "Print machine-readable JSON")
	return cmd
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	asOf, _ := cmd.Flags().GetString("as-of")
	windowName, _ := cmd.Flags().GetString("window")
	asJSON, _ := cmd.Flags().GetBool("json")

	now, err := referenceTime(asOf)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return withStorage(ctx, func(store *storage.SQLiteStorage) error {
		snap, err := store.Snapshot(ctx)
		if err != nil {
			return err
		}

		m := ledger.Compute(snap.Accounts, snap.Transactions, now)
		label := snap.Settings.Label()

		if windowName != "" {
			w, err := ledger.ParseWindow(windowName)
			if err != nil {
				return common.NewUserError("Window must be overall, monthly, weekly or daily", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatCurrency(m.Flow(w)))
			return nil
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"asOf":              model.FormatDate(model.CalendarDate(now)),
				"unitLabel":         label,
				"dollarsPerUnit":    m.DollarsPerUnit,
				"totalUnitsInStock": m.TotalUnitsInStock,
				"totalCashBalance":  m.TotalCashBalance,
				"netCashFlow":       m.NetCashFlow,
			})
		}

		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle("Dashboard as of "+cli.FormatDate(now)))
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderDashboard(m, ledger.ActiveAccounts(snap.Accounts), label))
		return nil
	})
}

// referenceTime is now in the ledger time zone, or noon of the given date.
func referenceTime(asOf string) (time.Time, error) {
	if asOf == "" {
		return appConfig.Now(), nil
	}
	date, ok := model.ParseDate(asOf)
	if !ok {
		return time.Time{}, common.NewUserError(fmt.Sprintf("Date %q is not valid; use YYYY-MM-DD", asOf), common.ErrInvalidConfig)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, appConfig.Location), nil
}

func inventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "Show units in stock and unit volume by type",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withStorage(ctx, func(store *storage.SQLiteStorage) error {
				snap, err := store.Snapshot(ctx)
				if err != nil {
					return err
				}

				stock := ledger.TotalUnitsInStock(snap.Transactions)
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderInventory(stock, ledger.UnitsBreakdown(snap.Transactions), snap.Settings.Label()))
				if stock.IsNegative() {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("More units have been sold than purchased"))
				}
				return nil
			})
		},
	}
}
