package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/infrastructure/config"
	"github.com/iho/missionledger/internal/infrastructure/postgres"
)

type cliOptions struct {
	baseURL string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "missionledger-cli",
		Short:         "MissionLedger CLI tool",
		Long:          `A command line interface for the MissionLedger API and its database migrations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the MissionLedger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		ledgerCmd(opts),
		ownerCmd(opts),
		periodCmd(opts),
		migrateCmd(),
	)

	return rootCmd
}

func ledgerCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that global receivables equal global payables",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]any
			status, err := opts.do(http.MethodGet, "/api/v1/ledger/consistency", nil, &result)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("consistency check FAILED (status %d): %v", status, result["message"])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Consistency check PASSED")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Compare both sides of every creditor/debtor pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report map[string]any
			status, err := opts.do(http.MethodGet, "/api/v1/ledger/reconciliation", nil, &report)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("reconciliation found mismatched pairs")
			}
			return nil
		},
	})

	return cmd
}

func ownerCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Balance queries for one owner (mission, area:<id>, district:<id>, branch:<id>, member:<id>)",
	}

	var kind, asOf string
	balanceCmd := &cobra.Command{
		Use:   "balance <owner>",
		Short: "Show one balance of an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := domain.ParseOwner(args[0])
			if err != nil {
				return err
			}
			q := url.Values{"entry_kind": {strings.ToUpper(kind)}}
			if asOf != "" {
				q.Set("as_of", asOf)
			}
			return opts.getAndPrint(cmd.OutOrStdout(), ownerPath(owner, "balance")+"?"+q.Encode())
		},
	}
	balanceCmd.Flags().StringVar(&kind, "kind", "CASH", "Entry kind: CASH, RECEIVABLE or PAYABLE")
	balanceCmd.Flags().StringVar(&asOf, "as-of", "", "Inclusive cut-off date (YYYY-MM-DD)")

	var positionAsOf string
	positionCmd := &cobra.Command{
		Use:   "position <owner>",
		Short: "Show cash, receivable, payable and spendable of an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := domain.ParseOwner(args[0])
			if err != nil {
				return err
			}
			path := ownerPath(owner, "position")
			if positionAsOf != "" {
				path += "?" + url.Values{"as_of": {positionAsOf}}.Encode()
			}
			return opts.getAndPrint(cmd.OutOrStdout(), path)
		},
	}
	positionCmd.Flags().StringVar(&positionAsOf, "as-of", "", "Inclusive cut-off date (YYYY-MM-DD)")

	summaryCmd := &cobra.Command{
		Use:   "summary <owner> <year> <month>",
		Short: "Show the live monthly summary of an owner",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, period, err := parseOwnerPeriod(args)
			if err != nil {
				return err
			}
			q := url.Values{
				"year":  {strconv.Itoa(period.Year)},
				"month": {strconv.Itoa(int(period.Month))},
			}
			return opts.getAndPrint(cmd.OutOrStdout(), ownerPath(owner, "summary")+"?"+q.Encode())
		},
	}

	cmd.AddCommand(balanceCmd, positionCmd, summaryCmd)
	return cmd
}

func periodCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "period",
		Short: "Monthly close and reopen",
	}

	transition := func(use, short, action string) *cobra.Command {
		var actor string
		c := &cobra.Command{
			Use:   use + " <owner> <year> <month>",
			Short: short,
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				owner, period, err := parseOwnerPeriod(args)
				if err != nil {
					return err
				}
				var result map[string]any
				status, err := opts.do(http.MethodPost, periodPath(owner, period)+"/"+action, map[string]string{"actor": actor}, &result)
				if err != nil {
					return err
				}
				if status != http.StatusOK {
					return fmt.Errorf("%s failed (status %d): %v", use, status, result["message"])
				}
				return printJSON(cmd.OutOrStdout(), result)
			},
		}
		c.Flags().StringVar(&actor, "actor", "", "Who performs the action")
		_ = c.MarkFlagRequired("actor")
		return c
	}

	showCmd := &cobra.Command{
		Use:   "show <owner> <year> <month>",
		Short: "Show the close state of an owner period",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, period, err := parseOwnerPeriod(args)
			if err != nil {
				return err
			}
			return opts.getAndPrint(cmd.OutOrStdout(), periodPath(owner, period))
		},
	}

	cmd.AddCommand(
		transition("close", "Close a month for an owner", "close"),
		transition("reopen", "Reopen a closed month for an owner", "reopen"),
		showCmd,
	)
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations (DATABASE_URL, MIGRATIONS_PATH)",
	}

	run := func(apply func(databaseURL, path string, logger zerolog.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
			return apply(cfg.DatabaseURL, cfg.MigrationsPath, logger)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(postgres.RunMigrations)},
		&cobra.Command{Use: "down", Short: "Roll back all migrations", RunE: run(postgres.RunMigrationsDown)},
	)
	return cmd
}

// do sends a JSON request and decodes the JSON response into out.
func (o *cliOptions) do(method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, strings.TrimRight(o.baseURL, "/")+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: o.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response (status %d): %s", resp.StatusCode, truncate(string(raw), 200))
		}
	}
	return resp.StatusCode, nil
}

func (o *cliOptions) getAndPrint(w io.Writer, path string) error {
	var result any
	status, err := o.do(http.MethodGet, path, nil, &result)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		if m, ok := result.(map[string]any); ok {
			return fmt.Errorf("request failed (status %d): %v", status, m["message"])
		}
		return fmt.Errorf("request failed (status %d)", status)
	}
	return printJSON(w, result)
}

func parseOwnerPeriod(args []string) (domain.Owner, domain.Period, error) {
	owner, err := domain.ParseOwner(args[0])
	if err != nil {
		return domain.Owner{}, domain.Period{}, err
	}
	year, err := strconv.Atoi(args[1])
	if err != nil {
		return domain.Owner{}, domain.Period{}, fmt.Errorf("%w: year %q", domain.ErrInvalidPeriod, args[1])
	}
	month, err := strconv.Atoi(args[2])
	if err != nil {
		return domain.Owner{}, domain.Period{}, fmt.Errorf("%w: month %q", domain.ErrInvalidPeriod, args[2])
	}
	period, err := domain.NewPeriod(year, month)
	if err != nil {
		return domain.Owner{}, domain.Period{}, err
	}
	return owner, period, nil
}

func ownerPath(owner domain.Owner, suffix string) string {
	return "/api/v1/owners/" + url.PathEscape(owner.String()) + "/" + suffix
}

func periodPath(owner domain.Owner, period domain.Period) string {
	return fmt.Sprintf("/api/v1/periods/%s/%d/%d", url.PathEscape(owner.String()), period.Year, int(period.Month))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
