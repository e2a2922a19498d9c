package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"db-sanity/internal/engine"
	"db-sanity/internal/fixture"
	"db-sanity/internal/rules"
	"db-sanity/internal/schema"
	"db-sanity/internal/source"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	seedColumns     []string
	seedTables      []string
	orphanRate      float64
	invalidEnumRate float64
	seedValue       int64
	force           bool
)

var seedCmd = &cobra.Command{
	Use:   "seed <folder>",
	Short: "Generate synthetic tables for a folder's relationships and enums",
	Long: `Writes <folder>/data/<table>.json for every table named in the folder's
relationships and enums, with referentially consistent keys. Fault rates
inject orphaned references and out-of-range enum values so the checks have
something to find.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{"count": "settings.default_count"})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		layout := engine.NewLayout(args[0], cfg.Layout.DataDir, cfg.Layout.Relationships, cfg.Layout.Enums)

		rels, err := rules.LoadRelationships(appFs, layout.Relationships)
		if err != nil && !errors.Is(err, rules.ErrRelationshipsMissing) {
			return err
		}
		enums, err := rules.LoadEnums(appFs, layout.Enums, cfg.Settings.RestoreOnOff)
		if err != nil {
			if !errors.Is(err, rules.ErrEnumsMissing) {
				return err
			}
			enums = schema.NewEnumDef()
		}

		if err := ensureWritable(layout.DataDir); err != nil {
			return err
		}

		spec := fixture.Spec{
			Tables:          seedTables,
			Relationships:   rels,
			Enums:           enums,
			Count:           cfg.Settings.DefaultCount,
			Columns:         seedColumns,
			IdentitySuffix:  cfg.Settings.IdentitySuffix,
			OrphanRate:      orphanRate,
			InvalidEnumRate: invalidEnumRate,
			Seed:            seedValue,
		}

		fmt.Printf("Generating %d rows per table...\n", spec.Count)
		start := time.Now()

		total := len(fixture.TableNames(spec))
		if total == 0 {
			return fmt.Errorf("nothing to generate: %s names no tables (use --tables)", layout.Relationships)
		}

		// Setup Progress Bar
		uiprogress.Start()
		bar := uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Generating: "
		})
		fx, err := fixture.Generate(spec, func(string) { bar.Incr() })
		uiprogress.Stop()
		if err != nil {
			return err
		}

		if err := source.WriteDir(appFs, layout.DataDir, fx.Tables); err != nil {
			return err
		}

		fmt.Println("\n📊 Generated Tables (Dependency Order):")
		for i, t := range fx.Tables {
			fmt.Printf("[✓] [%02d/%02d] %-20s : %d rows\n", i+1, len(fx.Tables), t.Name, t.Len())
		}
		if len(fx.Faults) > 0 {
			fmt.Printf("\n[!] Injected %d faults:\n", len(fx.Faults))
			for _, f := range fx.Faults {
				fmt.Printf("    └ %-12s %s[%s].%s = %q\n", f.Kind, f.Table, f.Key, f.Column, f.Value)
			}
		}
		fmt.Println("--------------------------------------------------")
		fmt.Printf("Seed Done! Wrote %s in %s\n", layout.DataDir, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

// ensureWritable refuses to overwrite existing table files unless --force.
func ensureWritable(dir string) error {
	if force {
		return nil
	}
	existing, err := afero.Glob(appFs, filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", dir, err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%s already holds %d table files (use --force to overwrite)", dir, len(existing))
	}
	return nil
}

func init() {
	RootCmd.AddCommand(seedCmd)

	// CLI Flags
	seedCmd.Flags().Int("count", fixture.DefaultCount, "Number of records to generate per table (overrides config)")
	seedCmd.Flags().StringSliceVar(&seedColumns, "columns", []string{}, "Extra columns for every table, generated from their names (comma-separated)")
	seedCmd.Flags().StringSliceVarP(&seedTables, "tables", "t", []string{}, "Additional tables to generate (comma-separated)")
	seedCmd.Flags().Float64Var(&orphanRate, "orphan-rate", 0, "Probability of an orphaned reference per child cell")
	seedCmd.Flags().Float64Var(&invalidEnumRate, "invalid-enum-rate", 0, "Probability of an out-of-range enum value per cell")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 0, "Random seed (0 = random)")
	seedCmd.Flags().BoolVar(&force, "force", false, "Overwrite existing table files")
}
