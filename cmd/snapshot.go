package cmd

import (
	"fmt"
	"time"

	"db-sanity/internal/engine"
	"db-sanity/internal/rules"
	"db-sanity/internal/schema"
	"db-sanity/internal/source"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <folder>",
	Short: "Dump the tables of the active database into a folder",
	Long: `Reads every base table of the configured database into
<folder>/data/<table>.json, keyed by primary key, and writes the declared
foreign keys to <folder>/relationships.yaml so the folder can be checked
offline.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{"limit": "settings.row_limit"})
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
		layout := engine.NewLayout(args[0], cfg.Layout.DataDir, cfg.Layout.Relationships, cfg.Layout.Enums)

		if err := ensureWritable(layout.DataDir); err != nil {
			return err
		}

		conn, err := openDatabase(viper.GetViper(), cfg)
		if err != nil {
			return err
		}
		defer conn.DB.Close()

		src := source.NewSQLSource(conn.DB, dialectFor(conn), conn.Schema, cfg.Settings.RowLimit)
		names, err := src.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no tables found in schema %q", conn.Schema)
		}

		start := time.Now()

		// Setup Progress Bar
		uiprogress.Start()
		bar := uiprogress.AddBar(len(names)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Reading: "
		})

		var tables []*schema.Table
		var skipped []string
		for _, name := range names {
			t, err := src.Load(name)
			bar.Incr()
			if err != nil {
				log.Error().Err(err).Str("table", name).Msg("skipping table")
				skipped = append(skipped, name)
				continue
			}
			tables = append(tables, t)
		}
		uiprogress.Stop()

		if err := source.WriteDir(appFs, layout.DataDir, tables); err != nil {
			return err
		}

		rels, err := src.ForeignKeys()
		if err != nil {
			return err
		}
		relsWritten, err := writeRelationships(layout.Relationships, rels)
		if err != nil {
			return err
		}

		fmt.Println("\n📊 Snapshot Report:")
		for i, t := range tables {
			fmt.Printf("[✓] [%02d/%02d] %-20s : %d rows\n", i+1, len(names), t.Name, t.Len())
		}
		for _, name := range skipped {
			fmt.Printf("[!] %-28s : skipped (see log)\n", name)
		}
		fmt.Println("--------------------------------------------------")
		if relsWritten {
			fmt.Printf("Wrote %d foreign keys to %s\n", len(rels), layout.Relationships)
		} else {
			fmt.Printf("Kept existing %s (use --force to replace)\n", layout.Relationships)
		}
		fmt.Printf("Snapshot Done! Time Elapsed: %s\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func writeRelationships(path string, rels []schema.Relationship) (bool, error) {
	if !force {
		ok, err := afero.Exists(appFs, path)
		if err != nil {
			return false, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if ok {
			return false, nil
		}
	}
	if err := rules.WriteRelationships(appFs, path, rels); err != nil {
		return false, err
	}
	return true, nil
}

func init() {
	RootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().Int("limit", 0, "Maximum rows per table (0 = all)")
	snapshotCmd.Flags().BoolVar(&force, "force", false, "Overwrite existing table and relationship files")
}
