package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve [report.json]",
	Short: "Serve an existing report with the viewer",
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{"port": "server.port"})
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

		path := cfg.Report.Output
		if len(args) == 1 {
			path = args[0]
		}
		ok, err := afero.Exists(appFs, path)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !ok {
			return fmt.Errorf("report %s not found (run 'db-sanity check' first)", path)
		}

		return serveReport(cmd.Context(), path, cfg.Server.Port, log)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 8000, "Port of the report viewer")
}
