package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/flowly/internal/cli"
	"github.com/Veraticus/flowly/internal/common"
	"github.com/Veraticus/flowly/internal/ledger"
	"github.com/Veraticus/flowly/internal/model"
	"github.com/Veraticus/flowly/internal/storage"
	"github.com/Veraticus/flowly/internal/validation"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage accounts",
		Long: `List, create, update and delete the accounts that hold your money.

Account balances are entered by hand; transactions never change them.`,
	}

	cmd.AddCommand(accountsListCmd())
	cmd.AddCommand(accountsAddCmd())
	cmd.AddCommand(accountsUpdateCmd())
	cmd.AddCommand(accountsToggleCmd())
	cmd.AddCommand(accountsDefaultCmd())
	cmd.AddCommand(accountsDeleteCmd())

	return cmd
}

func accountsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			activeOnly, _ := cmd.Flags().GetBool("active")

			return withStorage(cmd.Context(), func(store *storage.SQLiteStorage) error {
				snap, err := store.Snapshot(cmd.Context())
				if err != nil {
					return err
				}

				accounts := snap.Accounts
				if activeOnly {
					accounts = ledger.ActiveAccounts(accounts)
				}
				if len(accounts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No accounts yet. Add one with: flowly accounts add <name> --balance <amount>"))
					return nil
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderAccounts(accounts, snap.Settings))
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBalances(accounts))
				return nil
			})
		},
	}

	cmd.Flags().Bool("active", false, "Show only active accounts")
	return cmd
}

func accountsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account",
		Example: `  flowly accounts add Checking --balance 1250.00
  flowly accounts add "Cash Box" --balance 80 --color green --default`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, _ := cmd.Flags().GetString("balance")
			color, _ := cmd.Flags().GetString("color")
			inactive, _ := cmd.Flags().GetBool("inactive")
			makeDefault, _ := cmd.Flags().GetBool("default")

			active := !inactive
			account, fieldErrs := validation.ValidateAccount(validation.AccountForm{
				Name:     args[0],
				Balance:  balance,
				Color:    color,
				IsActive: &active,
			})
			if err := fieldErrs.Err(); err != nil {
				return common.NewUserError("Account is invalid", err)
			}

			ctx := cmd.Context()
			return withStorage(ctx, func(store *storage.SQLiteStorage) error {
				if err := store.CreateAccount(ctx, &account); err != nil {
					return fmt.Errorf("failed to create account: %w", err)
				}

				if makeDefault {
					if err := setDefaultAccount(cmd, store, &account.ID); err != nil {
						return err
					}
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created account %s (%s)", account.Name, cli.FormatCurrency(account.Balance))))
				return nil
			})
		},
	}

	cmd.Flags().String("balance", "0", "Current balance")
	cmd.Flags().String("color", string(model.ColorBlue), "Display color (red, blue, green, yellow, purple, indigo, pink)")
	cmd.Flags().Bool("inactive", false, "Create the account as inactive")
	cmd.Flags().Bool("default", false, "Make this the default account for new transactions")
	return cmd
}

func accountsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <account>",
		Short: "Change an account's name, balance, color or status",
		Example: `  flowly accounts update Checking --balance 980.15
  flowly accounts update Checking --name "Business Checking" --color indigo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := accountPatchFromFlags(cmd)
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				return common.NewUserError("Nothing to update; pass --name, --balance, --color or --active", nil)
			}
			if err := validation.ValidateAccountPatch(patch).Err(); err != nil {
				return common.NewUserError("Account update is invalid", err)
			}

			ctx := cmd.Context()
			return withStorage(ctx, func(store *storage.SQLiteStorage) error {
				accounts, err := store.GetAccounts(ctx)
				if err != nil {
					return err
				}
				account, err := findAccount(accounts, args[0])
				if err != nil {
					return err
				}

				updated, err := store.UpdateAccount(ctx, account.ID, patch)
				if err != nil {
					return fmt.Errorf("failed to update account: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated account %s (%s)", updated.Name, cli.FormatCurrency(updated.Balance))))
				return nil
			})
		},
	}

	cmd.Flags().String("name", "", "New account name")
	cmd.Flags().String("balance", "", "New balance")
	cmd.Flags().String("color", "", "New display color")
	cmd.Flags().Bool("active", true, "Whether the account is active")
	return cmd
}

// accountPatchFromFlags builds a patch from the flags the user actually set.
func accountPatchFromFlags(cmd *cobra.Command) (model.AccountPatch, error) {
	var patch model.AccountPatch
	flags := cmd.Flags()

	if flags.Changed("name") {
		name, _ := flags.GetString("name")
		patch.Name = &name
	}
	if flags.Changed("balance") {
		raw, _ := flags.GetString("balance")
		balance, err := decimal.NewFromString(raw)
		if err != nil {
			return patch, common.NewUserError(fmt.Sprintf("Balance %q is not a number", raw), err)
		}
		patch.Balance = &balance
	}
	if flags.Changed("color") {
		raw, _ := flags.GetString("color")
		color := model.AccountColor(raw)
		patch.Color = &color
	}
	if flags.Changed("active") {
		active, _ := flags.GetBool("active")
		patch.IsActive = &active
	}
	return patch, nil
}

func accountsToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <account>",
		Short: "Switch an account between active and inactive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStorage(ctx, func(store *storage.SQLiteStorage) error {
				accounts, err := store.GetAccounts(ctx)
				if err != nil {
					return err
				}
				account, err := findAccount(accounts, args[0])
				if err != nil {
					return err
				}

				active := !account.IsActive
				updated, err := store.UpdateAccount(ctx, account.ID, model.AccountPatch{IsActive: &active})
				if err != nil {
					return fmt.Errorf("failed to update account: %w", err)
				}

				status := "inactive"
				if updated.IsActive {
					status = "active"
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is now %s", updated.Name, status)))
				return nil
			})
		},
	}
}

func accountsDefaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "default [account]",
		Short: "Set or clear the default account for new transactions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clearDefault, _ := cmd.Flags().GetBool("clear")
			if clearDefault == (len(args) == 1) {
				return common.NewUserError("Pass either an account or --clear", nil)
			}

			ctx := cmd.Context()
			return withStorage(ctx, func(store *storage.SQLiteStorage) error {
				if clearDefault {
					return setDefaultAccount(cmd, store, nil)
				}

				accounts, err := store.GetAccounts(ctx)
				if err != nil {
					return err
				}
				account, err := findAccount(accounts, args[0])
				if err != nil {
					return err
				}
				return setDefaultAccount(cmd, store, &account.ID)
			})
		},
	}

	cmd.Flags().Bool("clear", false, "Clear the default account")
	return cmd
}

func setDefaultAccount(cmd *cobra.Command, store *storage.SQLiteStorage, id *string) error {
	ctx := cmd.Context()
	settings, err := store.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.DefaultAccountID = id
	if err := store.UpdateSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to update default account: %w", err)
	}

	if id == nil {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Cleared the default account"))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Default account updated"))
	}
	return nil
}

func accountsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <account>",
		Short: "Delete an account",
		Long: `Delete an account. Its transactions are kept and show as
"Unknown Account" afterwards. The default account cannot be deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			ctx := cmd.Context()
			return withStorage(ctx, func(store *storage.SQLiteStorage) error {
				accounts, err := store.GetAccounts(ctx)
				if err != nil {
					return err
				}
				account, err := findAccount(accounts, args[0])
				if err != nil {
					return err
				}

				if !yes {
					reader := cli.NewNonBlockingReader(os.Stdin)
					ok, err := cli.Confirm(ctx, reader, cmd.OutOrStdout(), fmt.Sprintf("Delete account %s?", account.Name))
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Canceled"))
						return nil
					}
				}

				if err := store.DeleteAccount(ctx, account.ID); err != nil {
					return common.NewUserError(fmt.Sprintf("Could not delete %s", account.Name), err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted account %s", account.Name)))
				return nil
			})
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Delete without asking for confirmation")
	return cmd
}
