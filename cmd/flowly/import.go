package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/flowly/internal/cli"
	"github.com/Veraticus/flowly/internal/common"
	"github.com/Veraticus/flowly/internal/csvio"
	"github.com/Veraticus/flowly/internal/ledger"
	"github.com/Veraticus/flowly/internal/model"
	"github.com/Veraticus/flowly/internal/ofx"
	"github.com/Veraticus/flowly/internal/storage"
	"github.com/Veraticus/flowly/internal/validation"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from CSV or OFX/QFX files",
	}

	cmd.AddCommand(importCSVCmd())
	cmd.AddCommand(importOFXCmd())
	return cmd
}

func importCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv <file>",
		Short: "Import a CSV file in the export layout",
		Long: `Import transactions from a CSV file with the columns written by
"flowly export csv". The Account column must name an existing account
exactly; rows naming any other account are skipped and reported.

Unreadable dates become today's date, unknown types become Sale and
non-numeric amounts become zero.`,
		Args: cobra.ExactArgs(1),
		RunE: runImportCSV,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	return cmd
}

func runImportCSV(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	out := cmd.OutOrStdout()

	f, err := os.Open(args[0])
	if err != nil {
		return common.NewUserError(fmt.Sprintf("Could not open %s", args[0]), err)
	}
	defer func() { _ = f.Close() }()

	ctx := cmd.Context()
	return withStorage(ctx, func(store *storage.SQLiteStorage) error {
		snap, err := store.Snapshot(ctx)
		if err != nil {
			return err
		}

		result, err := csvio.Import(f, snap.Accounts, snap.Settings.Label(), appConfig.Now())
		if result != nil {
			reportSkipped(cmd, result.Skipped)
		}
		if errors.Is(err, csvio.ErrImportEmpty) {
			return common.NewUserError(err.Error(), err)
		}
		if err != nil {
			return common.NewUserError(fmt.Sprintf("Could not read %s", filepath.Base(args[0])), err)
		}

		rules := transactionRules(snap)
		bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(result.Transactions), "Checking rows")
		flagged := 0
		for _, txn := range result.Transactions {
			if errs := validation.ValidateTransactionRecord(txn, rules); len(errs) > 0 {
				flagged++
				slog.Debug("Imported row does not meet form rules", "transaction", txn.ID, "problems", errs.Error())
			}
			cli.Advance(bar)
		}

		if result.DateFallbacks > 0 {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d rows had unreadable dates and were dated today", result.DateFallbacks)))
		}
		if flagged > 0 {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d rows would not pass the entry form; review them with: flowly transactions list", flagged)))
		}

		if dryRun {
			fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions would be imported", len(result.Transactions))))
			return nil
		}

		if err := store.SaveTransactions(ctx, result.Transactions); err != nil {
			common.LogError(err, "Failed to save imported transactions", common.Fields{"file": args[0], "rows": len(result.Transactions)})
			return fmt.Errorf("failed to save transactions: %w", err)
		}

		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions from %s", len(result.Transactions), filepath.Base(args[0]))))
		return nil
	})
}

func reportSkipped(cmd *cobra.Command, skipped []csvio.SkippedRow) {
	for _, row := range skipped {
		msg := fmt.Sprintf("Line %d skipped: %s", row.Line, row.Reason)
		if row.Account != "" {
			msg += fmt.Sprintf(" %q", row.Account)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(msg))
	}
}

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ofx <files...>",
		Short: "Import transactions from OFX/QFX bank statements",
		Long: `Import transactions from OFX or QFX files exported from your bank.

Credits are recorded as Gifts and debits as Expenses against the account
given with --account. Re-categorize sales and purchases afterwards with
"flowly transactions edit".

Examples:
  flowly import ofx ~/Downloads/checking_jan.qfx --account Checking
  flowly import ofx ~/Downloads/*.qfx --account Checking --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().StringP("account", "a", "", "Account to record the transactions against (required)")
	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	accountRef, _ := cmd.Flags().GetString("account")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	out := cmd.OutOrStdout()

	// Expand globs and collect all files
	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			slog.Warn("No files found matching pattern", "pattern", pattern)
			continue
		}
		allFiles = append(allFiles, matches...)
	}
	if len(allFiles) == 0 {
		return common.NewUserError("No files found to import", common.ErrNoTransactions)
	}

	ctx := cmd.Context()
	return withStorage(ctx, func(store *storage.SQLiteStorage) error {
		accounts, err := store.GetAccounts(ctx)
		if err != nil {
			return err
		}
		account, err := findAccount(accounts, accountRef)
		if err != nil {
			return err
		}

		parser := ofx.NewParser()
		var all []model.Transaction
		bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(allFiles), "Parsing statements")
		for _, path := range allFiles {
			result, err := parseOFXFile(cmd, parser, path, account.ID)
			cli.Advance(bar)
			if err != nil {
				slog.Error("Failed to parse OFX file", "file", path, "error", err)
				continue
			}

			slog.Info("Processed file",
				"file", filepath.Base(path),
				"statements", result.Statements,
				"transactions", len(result.Transactions),
				"zero_amount", result.Zero,
				"duplicates", result.Duplicates)
			all = append(all, result.Transactions...)
		}

		if len(all) == 0 {
			fmt.Fprintln(out, cli.FormatWarning("No transactions found in any file"))
			return nil
		}

		if dryRun {
			fmt.Fprintln(out, cli.RenderTransactions(ledger.Join(all, accounts), model.DefaultUnitLabel))
			fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions would be imported into %s", len(all), account.Name)))
			return nil
		}

		if err := store.SaveTransactions(ctx, all); err != nil {
			return fmt.Errorf("failed to save transactions: %w", err)
		}
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions into %s", len(all), account.Name)))
		return nil
	})
}

func parseOFXFile(cmd *cobra.Command, parser *ofx.Parser, path, accountID string) (*ofx.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parser.ParseFile(cmd.Context(), f, accountID)
}
