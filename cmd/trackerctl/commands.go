package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"tracker/internal/aggregate"
	"tracker/internal/backend"
	"tracker/internal/cli"
	"tracker/internal/config"
	"tracker/internal/console"
	"tracker/internal/core"
	"tracker/internal/export"
	applog "tracker/internal/log"
	"tracker/internal/services"
	"tracker/internal/store"

	"github.com/spf13/cobra"
)

// app carries what every subcommand needs. Fields preset before Execute
// are kept, so tests can inject a store and a clock.
type app struct {
	out     io.Writer
	console *console.Console
	now     func() time.Time

	cfg      *config.Config
	logger   *applog.Logger
	store    store.Store
	cleanup  backend.CleanupFunc
	expenses *services.ExpenseService
	reports  *services.DashboardService
}

func newApp(out io.Writer) *app {
	return &app{out: out, console: console.New(out), now: time.Now}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "trackerctl",
		Short:         "Inspect, export and import tracked expenses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config-file")
			return a.open(cmd.Context(), configFile)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringP("config-file", "C", "", "Path to a TOML or YAML configuration file")

	root.AddCommand(
		newSummaryCmd(a),
		newDailyCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

func (a *app) open(ctx context.Context, configFile string) error {
	if a.cfg == nil {
		if configFile != "" {
			if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
				return err
			}
		}
		cfg, err := cli.LoadConfig()
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.logger == nil {
		a.logger = applog.New(applog.Config{
			Level:     applog.ParseLevel(a.cfg.LogLevel),
			Component: applog.ComponentCLI,
			Output:    os.Stderr,
		})
	}

	var publisher services.Publisher
	if a.store == nil {
		backendCfg, err := backend.FromAppConfig(a.cfg)
		if err != nil {
			return err
		}
		if ctx == nil {
			ctx = context.Background()
		}
		result, err := backend.NewFactory(a.logger.Logger).CreateBackend(ctx, backendCfg)
		if err != nil {
			return err
		}
		a.store, a.cleanup = result.Store, result.Cleanup

		if client := backend.NewPublisher(a.logger.Logger, a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue); client != nil {
			publisher = client
		}
	}

	a.expenses = services.NewExpenseService(a.store, publisher)
	a.reports = services.NewDashboardService(a.store)
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.expenses != nil {
		errs = append(errs, a.expenses.Close())
	}
	if a.cleanup != nil {
		errs = append(errs, a.cleanup())
	}
	return errors.Join(errs...)
}

func newSummaryCmd(a *app) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Monthly totals per category for one year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if year == 0 {
				year = a.now().Year()
			}
			months, err := a.reports.Monthly(cmd.Context(), aggregate.YearPeriods(year), nil)
			if err != nil {
				return err
			}
			filters, err := a.reports.Filters(cmd.Context(), a.now())
			if err != nil {
				return err
			}

			a.console.Println(console.BoldCyan(fmt.Sprintf("Expenses %d", year)))
			a.console.Println(console.MonthlyTable(months))
			a.console.Println(console.FiltersLine(filters))
			return nil
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Calendar year (default: current year)")
	return cmd
}

func newDailyCmd(a *app) *cobra.Command {
	var category, rawPeriod string
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Per-day totals of one category in one month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			category = strings.TrimSpace(category)
			rawPeriod = strings.TrimSpace(rawPeriod)

			if category == "" || rawPeriod == "" {
				filters, err := a.reports.Filters(cmd.Context(), a.now())
				if err != nil {
					return err
				}
				if category == "" && filters.DefaultCategory != nil {
					category = *filters.DefaultCategory
				}
				if rawPeriod == "" && filters.DefaultPeriod != nil {
					rawPeriod = filters.DefaultPeriod.String()
				}
			}
			if category == "" {
				a.console.LogWarning("No expenses recorded yet")
				return nil
			}

			period, err := core.ParsePeriod(rawPeriod)
			if err != nil {
				return fmt.Errorf("invalid --period %q: want YYYY-MM", rawPeriod)
			}

			days, err := a.reports.Daily(cmd.Context(), category, period)
			if err != nil {
				return err
			}

			a.console.Println(console.BoldCyan(fmt.Sprintf("%s, %s", category, period)))
			if len(days) == 0 {
				a.console.LogInfo("No expenses in %s for %s", period, category)
				return nil
			}
			a.console.Println(console.DailyTable(days))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category (default: first category)")
	cmd.Flags().StringVarP(&rawPeriod, "period", "p", "", "Month as YYYY-MM (default: current or latest month)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var rawFormat, out, s3Key string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record as csv, json or pdf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := export.ParseFormat(rawFormat)
			if err != nil {
				return err
			}
			records, err := a.reports.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := export.Write(&buf, format, records); err != nil {
				return err
			}

			if out == "" || out == "-" {
				_, err := a.out.Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			a.console.LogSuccess("Exported %d records to %s", len(records), out)

			if s3Key != "" {
				if a.cfg.S3Bucket == "" {
					return errors.New("--s3-key needs S3_BUCKET to be set")
				}
				uploader, err := export.NewS3UploaderFromEnv(cmd.Context(), a.cfg.S3Bucket, a.cfg.S3Prefix, a.cfg.AWSRegion)
				if err != nil {
					return err
				}
				location, err := uploader.Upload(cmd.Context(), s3Key, buf.Bytes(), format.ContentType())
				if err != nil {
					return err
				}
				a.console.LogSuccess("Archived to %s", location)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&rawFormat, "format", "f", "csv", "Export format: csv, json or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&s3Key, "s3-key", "", "Also upload the export to S3 under this key")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create a record for every valid row of a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			records, malformed, err := export.ReadCSV(f)
			if err != nil {
				return err
			}

			imported, skipped := 0, 0
			for i, e := range records {
				if _, err := a.expenses.Create(cmd.Context(), e); err != nil {
					if !core.IsValidation(err) {
						return fmt.Errorf("row %d: %w", i+1, err)
					}
					a.logger.Warn("Skipping invalid row",
						applog.FieldOperation, applog.OpImport,
						"row", i+1,
						applog.FieldError, err)
					skipped++
					continue
				}
				imported++
			}

			a.console.LogSuccess("Imported %d records from %s", imported, args[0])
			if skipped > 0 {
				a.console.LogWarning("Skipped %d invalid rows (%d malformed)", skipped, malformed)
			}
			return nil
		},
	}
}
