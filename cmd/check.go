package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"db-sanity/internal/engine"
	"db-sanity/internal/publish"
	"db-sanity/internal/report"
	"db-sanity/internal/schema"
	"db-sanity/internal/source"

	"github.com/gosuri/uiprogress"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveAfter bool
	fromDB     bool
)

var checkCmd = &cobra.Command{
	Use:   "check <folder>",
	Short: "Check the tables of a folder against its enums and relationships",
	Long: `Loads <folder>/data/*.json, checks every table (keys, identity column,
enum values) and every relationship in <folder>/relationships.yaml, then
writes the findings report.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"output":           "report.output",
			"port":             "server.port",
			"workers":          "settings.workers",
			"fail-on-findings": "settings.fail_on_findings",
			"row-limit":        "settings.row_limit",
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}

		folder := args[0]
		opts := engine.Options{
			Fs:            appFs,
			Layout:        engine.NewLayout(folder, cfg.Layout.DataDir, cfg.Layout.Relationships, cfg.Layout.Enums),
			Checks:        cfg.checkOptions(),
			RestoreOnOff:  cfg.Settings.RestoreOnOff,
			ReportSkipped: cfg.Settings.ReportSkipped,
			Workers:       cfg.Settings.Workers,
			Logger:        log,
		}

		if fromDB {
			conn, err := openDatabase(viper.GetViper(), cfg)
			if err != nil {
				return err
			}
			defer conn.DB.Close()

			if err := useDatabaseSource(&opts, conn, cfg.Settings.RowLimit); err != nil {
				return err
			}
		}

		// Setup Progress Bar
		var bar *uiprogress.Bar
		opts.OnStart = func(total int) {
			if total == 0 {
				return
			}
			uiprogress.Start()
			bar = uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(b *uiprogress.Bar) string {
				return "Checking: "
			})
		}
		opts.OnStep = func() {
			if bar != nil {
				bar.Incr()
			}
		}

		start := time.Now()
		rep, err := engine.Run(opts)
		if bar != nil {
			uiprogress.Stop()
		}
		if err != nil {
			return fmt.Errorf("sanity check aborted: %w", err)
		}

		if err := rep.Write(appFs, cfg.Report.Output); err != nil {
			return err
		}

		printSummary(rep, time.Since(start))
		fmt.Printf("Report written to %s\n", cfg.Report.Output)

		if serveAfter {
			if err := serveReport(cmd.Context(), cfg.Report.Output, cfg.Server.Port, log); err != nil {
				return err
			}
		}

		if failures := rep.Failures(); cfg.Settings.FailOnFindings && len(failures) > 0 {
			return fmt.Errorf("%d checks failed", len(failures))
		}
		return nil
	},
}

// useDatabaseSource points the run at a live database. Without a
// relationships file the declared foreign keys are used instead.
func useDatabaseSource(opts *engine.Options, conn *Connection, rowLimit int) error {
	src := source.NewSQLSource(conn.DB, dialectFor(conn), conn.Schema, rowLimit)
	opts.Source = src

	ok, err := afero.Exists(opts.Fs, opts.Layout.Relationships)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", opts.Layout.Relationships, err)
	}
	if ok {
		return nil
	}

	rels, err := src.ForeignKeys()
	if err != nil {
		return err
	}
	if rels == nil {
		rels = []schema.Relationship{}
	}
	opts.Relationships = rels
	fmt.Printf("Using %d foreign keys declared in the database\n", len(rels))
	return nil
}

func printSummary(rep *report.Report, elapsed time.Duration) {
	fmt.Println("\n📊 Summary Report:")

	names := rep.TableNames()
	for i, name := range names {
		t := rep.Tables[name]
		checks := append(append([]checkLine{}, linesOf(t.Checks)...), linesOf(rep.EnumTables[name])...)
		printScope(fmt.Sprintf("[%02d/%02d] %-20s : %d rows", i+1, len(names), name, t.RowCount), checks)
	}

	var label string
	var group []checkLine
	flush := func() {
		if label != "" {
			printScope(fmt.Sprintf("%-28s", label), group)
		}
	}
	for _, r := range rep.Relationships {
		if r.Relationship != label {
			flush()
			label, group = r.Relationship, nil
		}
		group = append(group, checkLine{r.Check, r.Failed(), r.Informational, detailText(r.Metric, r.Details)})
	}
	flush()

	s := rep.Summary()
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Tables: %d, Rows: %d, Checks: %d, Passed: %d, Failed: %d, Info: %d\n",
		s.Tables, s.Rows, s.Checks, s.Passed, s.Failed, s.Informational)
	fmt.Printf("Done! Time Elapsed: %s\n", elapsed.Round(time.Millisecond))
}

func serveReport(ctx context.Context, path string, port int, log zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := publish.NewServer(appFs, path, port, log)
	return srv.Serve(ctx, func(url string) {
		fmt.Printf("🌐 Serving report at %s (Ctrl+C to stop)\n", url)
	})
}

func init() {
	RootCmd.AddCommand(checkCmd)

	// CLI Flags
	checkCmd.Flags().StringP("output", "o", "sanity_report.json", "Path of the report file (overrides config)")
	checkCmd.Flags().BoolVar(&serveAfter, "serve", false, "Serve the report with the viewer after the run")
	checkCmd.Flags().Int("port", publish.DefaultPort, "Port of the report viewer")
	checkCmd.Flags().Int("workers", 0, "Concurrent workers (0 = number of CPUs)")
	checkCmd.Flags().BoolVar(&fromDB, "from-db", false, "Read tables from the configured database instead of <folder>/data")
	checkCmd.Flags().Int("row-limit", 0, "Maximum rows read per table with --from-db (0 = all)")
	checkCmd.Flags().Bool("fail-on-findings", false, "Exit non-zero when any check fails")
}
