package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/creditledger/internal/infrastructure/logger"
	"github.com/iho/creditledger/internal/infrastructure/postgres"
)

var errCheckFailed = errors.New("check failed")

// cliOptions are the persistent flags shared by every command.
type cliOptions struct {
	baseURL string
	timeout time.Duration
}

func (o *cliOptions) client() *apiClient {
	return newAPIClient(o.baseURL, o.timeout)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "creditledger-cli",
		Short:         "CreditLedger CLI tool",
		Long:          `A command line interface for inspecting and operating the CreditLedger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the CreditLedger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		newLedgerCmd(opts),
		newReconcileCmd(opts),
		newAccountCmd(opts),
		newTransactionCmd(opts),
		newPurchaseCmd(opts),
		newMigrateCmd(),
	)

	return rootCmd
}

// Ledger commands

func newLedgerCmd(opts *cliOptions) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that every currency sums to zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, status, err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil, nil, http.StatusConflict)
			if err != nil {
				return err
			}

			var result struct {
				Consistent   bool     `json:"consistent"`
				Inconsistent []string `json:"inconsistent_currencies"`
			}
			if err := json.Unmarshal(raw, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			if status == http.StatusConflict || !result.Consistent {
				fmt.Fprintf(out, "Consistency check FAILED\nInconsistent currencies: %v\n", result.Inconsistent)
				printJSON(out, raw)
				return errCheckFailed
			}

			fmt.Fprintln(out, "Consistency check PASSED")
			printJSON(out, raw)
			return nil
		},
	})

	return ledgerCmd
}

// Reconciliation commands

func newReconcileCmd(opts *cliOptions) *cobra.Command {
	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute stored balances and totals from entries",
	}

	reconcileCmd.AddCommand(
		&cobra.Command{
			Use:   "report",
			Short: "Run a full reconciliation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runCheck(cmd, opts, "/api/v1/reconciliation/report", "consistent", "Reconciliation")
			},
		},
		&cobra.Command{
			Use:   "transaction <id>",
			Short: "Reconcile one transaction",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCheck(cmd, opts, "/api/v1/transactions/"+url.PathEscape(args[0])+"/reconciliation", "balanced", "Transaction "+args[0])
			},
		},
		&cobra.Command{
			Use:   "account <id>",
			Short: "Reconcile one account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCheck(cmd, opts, "/api/v1/accounts/"+url.PathEscape(args[0])+"/reconciliation", "balanced", "Account "+args[0])
			},
		},
	)

	return reconcileCmd
}

// runCheck fetches path and reports the boolean field okField as PASSED or FAILED.
func runCheck(cmd *cobra.Command, opts *cliOptions, path, okField, label string) error {
	raw, _, err := opts.client().do(cmd.Context(), http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	out := cmd.OutOrStdout()
	ok, _ := result[okField].(bool)
	if !ok {
		fmt.Fprintf(out, "%s: FAILED\n", label)
		printJSON(out, raw)
		return errCheckFailed
	}

	fmt.Fprintf(out, "%s: PASSED\n", label)
	printJSON(out, raw)
	return nil
}

// Account commands

func newAccountCmd(opts *cliOptions) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	accountCmd.AddCommand(
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return getAndPrint(cmd, opts, "/api/v1/accounts/"+url.PathEscape(args[0]))
			},
		},
		&cobra.Command{
			Use:   "balance <id>",
			Short: "Show an account balance",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return getAndPrint(cmd, opts, "/api/v1/accounts/"+url.PathEscape(args[0])+"/balance")
			},
		},
	)

	return accountCmd
}

// Transaction commands

func newTransactionCmd(opts *cliOptions) *cobra.Command {
	transactionCmd := &cobra.Command{
		Use:     "transaction",
		Aliases: []string{"txn"},
		Short:   "Transaction operations",
	}

	var reason string
	reverseCmd := &cobra.Command{
		Use:   "reverse <id>",
		Short: "Reverse a completed transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAndPrint(cmd, opts, "/api/v1/transactions/"+url.PathEscape(args[0])+"/reverse", map[string]string{"reason": reason})
		},
	}
	reverseCmd.Flags().StringVar(&reason, "reason", "", "Reason recorded on the reversal")

	var failReason string
	failCmd := &cobra.Command{
		Use:   "fail <id>",
		Short: "Fail a pending transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAndPrint(cmd, opts, "/api/v1/transactions/"+url.PathEscape(args[0])+"/fail", map[string]string{"reason": failReason})
		},
	}
	failCmd.Flags().StringVar(&failReason, "reason", "", "Reason recorded on the failure")

	transactionCmd.AddCommand(
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show a transaction",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return getAndPrint(cmd, opts, "/api/v1/transactions/"+url.PathEscape(args[0]))
			},
		},
		&cobra.Command{
			Use:   "entries <id>",
			Short: "List the entries of a transaction",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return getAndPrint(cmd, opts, "/api/v1/transactions/"+url.PathEscape(args[0])+"/entries")
			},
		},
		reverseCmd,
		failCmd,
	)

	return transactionCmd
}

func getAndPrint(cmd *cobra.Command, opts *cliOptions, path string) error {
	raw, _, err := opts.client().do(cmd.Context(), http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	printJSON(cmd.OutOrStdout(), raw)
	return nil
}

func postAndPrint(cmd *cobra.Command, opts *cliOptions, path string, body any) error {
	raw, _, err := opts.client().do(cmd.Context(), http.MethodPost, path, body, nil)
	if err != nil {
		return err
	}
	printJSON(cmd.OutOrStdout(), raw)
	return nil
}

// Posting commands

func newPurchaseCmd(opts *cliOptions) *cobra.Command {
	var ownerID, currency, amount, key, description string

	purchaseCmd := &cobra.Command{
		Use:   "purchase",
		Short: "Record a credit purchase for an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body := map[string]string{
				"owner_id":     ownerID,
				"currency":     currency,
				"amount_major": amount,
				"description":  description,
			}
			raw, _, err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/purchases", body,
				map[string]string{"Idempotency-Key": key})
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), raw)
			return nil
		},
	}
	purchaseCmd.Flags().StringVar(&ownerID, "owner", "", "Owner receiving the credits")
	purchaseCmd.Flags().StringVar(&currency, "currency", "CREDITS", "Currency code")
	purchaseCmd.Flags().StringVar(&amount, "amount", "", "Amount in major units, e.g. 12.50")
	purchaseCmd.Flags().StringVar(&key, "key", "", "Idempotency key")
	purchaseCmd.Flags().StringVar(&description, "description", "", "Description")
	_ = purchaseCmd.MarkFlagRequired("owner")
	_ = purchaseCmd.MarkFlagRequired("amount")
	_ = purchaseCmd.MarkFlagRequired("key")

	return purchaseCmd
}

// Migration commands

func newMigrateCmd() *cobra.Command {
	var databaseURL, migrationsPath string

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	migrateCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "Directory containing the migration files")

	migrator := func(cmd *cobra.Command) (*postgres.Migrator, error) {
		if databaseURL == "" {
			return nil, errors.New("--database-url or DATABASE_URL is required")
		}
		log := logger.NewWithWriter(logger.Config{Level: "info", Format: "console"}, cmd.ErrOrStderr())
		return postgres.NewMigrator(databaseURL, migrationsPath, log), nil
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := migrator(cmd)
				if err != nil {
					return err
				}
				return m.Up()
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := migrator(cmd)
				if err != nil {
					return err
				}
				return m.Down()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := migrator(cmd)
				if err != nil {
					return err
				}
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %v\n", version, dirty)
				return nil
			},
		},
	)

	return migrateCmd
}

// printJSON re-indents raw JSON, falling back to the raw bytes.
func printJSON(out io.Writer, raw []byte) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Fprintln(out, string(raw))
		return
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(out, string(raw))
		return
	}
	fmt.Fprintln(out, string(pretty))
}

