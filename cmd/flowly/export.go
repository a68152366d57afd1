package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/flowly/internal/cli"
	"github.com/Veraticus/flowly/internal/common"
	"github.com/Veraticus/flowly/internal/csvio"
	"github.com/Veraticus/flowly/internal/ledger"
	"github.com/Veraticus/flowly/internal/model"
	"github.com/Veraticus/flowly/internal/report"
	"github.com/Veraticus/flowly/internal/storage"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions to CSV or an Excel workbook",
		Long: `Export every transaction, newest first.

CSV files use the same columns that import reads, so an export can be
edited in a spreadsheet and imported again. Workbooks add a summary sheet
with the dashboard figures.`,
	}

	cmd.AddCommand(exportFileCmd("csv", "Write transactions as CSV", writeCSV))
	cmd.AddCommand(exportFileCmd("xlsx", "Write transactions and a summary as an Excel workbook", writeWorkbook))
	return cmd
}

type exportWriter func(w io.Writer, snap *model.Snapshot) error

func exportFileCmd(format, short string, write exportWriter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   format,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")

			ctx := cmd.Context()
			return withStorage(ctx, func(store *storage.SQLiteStorage) error {
				snap, err := store.Snapshot(ctx)
				if err != nil {
					return err
				}
				if len(snap.Transactions) == 0 {
					slog.Warn("Exporting an empty ledger", "error", common.ErrNoTransactions)
				}

				if output == "-" {
					return write(cmd.OutOrStdout(), snap)
				}
				if output == "" {
					output = fmt.Sprintf("transactions_%s.%s", appConfig.Now().Format("20060102"), format)
				}

				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				if err := write(f, snap); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("failed to close %s: %w", output, err)
				}

				common.LogInfo("Export written", common.Fields{"path": output, "transactions": len(snap.Transactions)})
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %s", len(snap.Transactions), output)))
				return nil
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file, or - for stdout (default: transactions_<date>."+format+")")
	return cmd
}

func writeCSV(w io.Writer, snap *model.Snapshot) error {
	return csvio.Export(w, ledger.Join(snap.Transactions, snap.Accounts), snap.Settings.Label())
}

func writeWorkbook(w io.Writer, snap *model.Snapshot) error {
	return report.Write(w, *snap, appConfig.Now())
}
