package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Veraticus/flowly/internal/cli"
	"github.com/Veraticus/flowly/internal/common"
	"github.com/Veraticus/flowly/internal/ledger"
	"github.com/Veraticus/flowly/internal/model"
	"github.com/Veraticus/flowly/internal/storage"
	"github.com/Veraticus/flowly/internal/tui"
	"github.com/Veraticus/flowly/internal/validation"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn", "tx"},
		Short:   "Record and browse transactions",
	}

	cmd.AddCommand(transactionsListCmd())
	cmd.AddCommand(transactionsAddCmd())
	cmd.AddCommand(transactionsEditCmd())
	cmd.AddCommand(transactionsDeleteCmd())

	return cmd
}

func transactionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions with optional filters",
		Example: `  flowly transactions list --days 30
  flowly transactions list --type sale --sort amountDesc
  flowly transactions list --search "farmers market"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			search, _ := cmd.Flags().GetString("search")
			typeName, _ := cmd.Flags().GetString("type")
			days, _ := cmd.Flags().GetInt("days")
			sortName, _ := cmd.Flags().GetString("sort")
			limit, _ := cmd.Flags().GetInt("limit")

			opts := ledger.FilterOptions{Search: search, Days: days}
			if typeName != "" {
				typ, ok := model.ParseTransactionType(typeName)
				if !ok {
					return common.NewUserError(fmt.Sprintf("Unknown transaction type %q", typeName), common.ErrInvalidTransaction)
				}
				opts.Type = typ
			}
			sortKey, err := ledger.ParseSortKey(sortName)
			if err != nil {
				return common.NewUserError("Sort must be dateDesc, dateAsc, amountDesc or amountAsc", err)
			}
			opts.SortBy = sortKey

			ctx := cmd.Context()
			return withStorage(ctx, func(store *storage.SQLiteStorage) error {
				snap, err := store.Snapshot(ctx)
				if err != nil {
					return err
				}

				txns := ledger.Filter(ledger.Join(snap.Transactions, snap.Accounts), opts, appConfig.Now())
				total := len(txns)
				if limit > 0 && len(txns) > limit {
					txns = txns[:limit]
				}

				if total == 0 {
					if opts.Active() {
						fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No transactions match these filters"))
					} else {
						fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No transactions recorded yet"))
					}
					return nil
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTransactions(txns, snap.Settings.Label()))
				if len(txns) < total {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Showing %d of %d transactions", len(txns), total)))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringP("search", "s", "", "Match customer/vendor or notes")
	cmd.Flags().StringP("type", "t", "", "Only this type (sale, purchase, expense, gift)")
	cmd.Flags().IntP("days", "d", 0, "Only the last N days")
	cmd.Flags().String("sort", string(ledger.SortDateDesc), "Sort order (dateDesc, dateAsc, amountDesc, amountAsc)")
	cmd.Flags().IntP("limit", "n", 0, "Show at most N transactions")
	return cmd
}

// transactionFlags registers the form fields shared by add and edit.
func transactionFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "Date (YYYY-MM-DD)")
	cmd.Flags().StringP("type", "t", "", "Type (sale, purchase, expense, gift)")
	cmd.Flags().StringP("party", "p", "", "Customer or vendor")
	cmd.Flags().StringP("account", "a", "", "Account name or ID")
	cmd.Flags().String("in", "", "Money in")
	cmd.Flags().String("out", "", "Money out")
	cmd.Flags().StringP("units", "u", "", "Units sold or purchased")
	cmd.Flags().String("notes", "", "Notes")
	cmd.Flags().BoolP("interactive", "i", false, "Fill in the transaction with an interactive form")
}

var transactionFieldFlags = []string{"date", "type", "party", "account", "in", "out", "units", "notes"}

// useForm reports whether the interactive form should collect the
// transaction: when asked for, or when no field flags were given and stdin is
// a terminal.
func useForm(cmd *cobra.Command) bool {
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		return true
	}
	for _, name := range transactionFieldFlags {
		if cmd.Flags().Changed(name) {
			return false
		}
	}
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// collectTransaction turns form into a valid transaction, through the
// interactive form when useForm says so. It reports false when the user
// canceled.
func collectTransaction(cmd *cobra.Command, title string, form validation.TransactionForm, snap *model.Snapshot) (model.Transaction, bool, error) {
	rules := transactionRules(snap)

	if useForm(cmd) {
		txn, err := tui.RunTransactionForm(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(),
			tui.NewTransactionForm(title, form, snap.Accounts, rules))
		if errors.Is(err, tui.ErrCanceled) {
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Canceled"))
			return model.Transaction{}, false, nil
		}
		if err != nil {
			return model.Transaction{}, false, err
		}
		return txn, true, nil
	}

	txn, fieldErrs := validation.ValidateTransaction(form, rules)
	if err := fieldErrs.Err(); err != nil {
		return model.Transaction{}, false, common.NewUserError("Transaction is invalid", err)
	}
	return txn, true, nil
}

// applyTransactionFlags copies the flags the user set onto form.
func applyTransactionFlags(cmd *cobra.Command, form *validation.TransactionForm, accounts []model.Account) error {
	flags := cmd.Flags()
	fields := map[string]*string{
		"date":  &form.Date,
		"type":  &form.Type,
		"party": &form.CustomerVendor,
		"in":    &form.MoneyIn,
		"out":   &form.MoneyOut,
		"units": &form.Units,
		"notes": &form.Notes,
	}
	for name, dst := range fields {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}

	if flags.Changed("account") {
		ref, _ := flags.GetString("account")
		account, err := findAccount(accounts, ref)
		if err != nil {
			return err
		}
		form.AccountID = account.ID
	}
	return nil
}

func transactionRules(snap *model.Snapshot) validation.Rules {
	ids := make(map[string]bool, len(snap.Accounts))
	for _, a := range snap.Accounts {
		ids[a.ID] = true
	}
	return validation.Rules{
		AccountExists: func(id string) bool { return ids[id] },
		UnitLabel:     snap.Settings.Label(),
	}
}

func transactionsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  flowly transactions add --type sale --party "Jane Doe" --in 50 --units 10
  flowly transactions add --type expense --party Landlord --out 400 --account Checking --date 2024-03-01
  flowly transactions add --interactive`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withStorage(ctx, func(store *storage.SQLiteStorage) error {
				snap, err := store.Snapshot(ctx)
				if err != nil {
					return err
				}

				form := validation.TransactionForm{Date: model.FormatDate(model.CalendarDate(appConfig.Now()))}
				if snap.Settings.DefaultAccountID != nil {
					form.AccountID = *snap.Settings.DefaultAccountID
				}
				if err := applyTransactionFlags(cmd, &form, snap.Accounts); err != nil {
					return err
				}

				txn, ok, err := collectTransaction(cmd, "New transaction", form, snap)
				if err != nil || !ok {
					return err
				}

				if err := store.AddTransaction(ctx, &txn); err != nil {
					return fmt.Errorf("failed to save transaction: %w", err)
				}

				enriched := ledger.Join([]model.Transaction{txn}, snap.Accounts)
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s %s", txn.Type, txn.ID)))
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTransactions(enriched, snap.Settings.Label()))
				return nil
			})
		},
	}

	transactionFlags(cmd)
	return cmd
}

func transactionsEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a recorded transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStorage(ctx, func(store *storage.SQLiteStorage) error {
				existing, err := store.GetTransaction(ctx, args[0])
				if err != nil {
					return common.NewUserError(fmt.Sprintf("No transaction with ID %s", args[0]), err)
				}
				snap, err := store.Snapshot(ctx)
				if err != nil {
					return err
				}

				form := validation.FormFromTransaction(*existing)
				if err := applyTransactionFlags(cmd, &form, snap.Accounts); err != nil {
					return err
				}

				txn, ok, err := collectTransaction(cmd, "Edit transaction", form, snap)
				if err != nil || !ok {
					return err
				}
				txn.ID = existing.ID
				txn.CreatedAt = existing.CreatedAt

				if err := store.UpdateTransaction(ctx, &txn); err != nil {
					return fmt.Errorf("failed to update transaction: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated transaction %s", txn.ID)))
				return nil
			})
		},
	}

	transactionFlags(cmd)
	return cmd
}

func transactionsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			ctx := cmd.Context()
			return withStorage(ctx, func(store *storage.SQLiteStorage) error {
				txn, err := store.GetTransaction(ctx, args[0])
				if err != nil {
					return common.NewUserError(fmt.Sprintf("No transaction with ID %s", args[0]), err)
				}

				if !yes {
					question := fmt.Sprintf("Delete %s with %s on %s?", txn.Type, txn.CustomerVendor, cli.FormatDate(txn.Date))
					ok, err := cli.Confirm(ctx, cli.NewNonBlockingReader(os.Stdin), cmd.OutOrStdout(), question)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Canceled"))
						return nil
					}
				}

				if err := store.DeleteTransaction(ctx, txn.ID); err != nil {
					return fmt.Errorf("failed to delete transaction: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted transaction"))
				return nil
			})
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Delete without asking for confirmation")
	return cmd
}
