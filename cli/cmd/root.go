// Package cmd provides the Cobra commands for the sizesnap CLI.
package cmd

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/sizesnap/cli/output"
	"github.com/fluxbase-eu/sizesnap/internal/config"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"

	// Global flags
	cfgFile    string
	projectDir string
	outputFmt  string
	noHeaders  bool
	quiet      bool
	debug      bool

	// Shared across commands
	formatter *output.Formatter
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sizesnap",
	Short: "sizesnap - Track the size of compiled JavaScript bundles",
	Long: `sizesnap measures compiled JavaScript outputs and records their sizes in a
snapshot file that is committed next to the code.

For every output it records:
  - the raw size as emitted by the bundler
  - the minified size and the minified, gzipped size
  - for ES modules, how much code survives when nothing is imported from it

Get started:
  sizesnap measure dist/index.js      Measure an output and write the snapshot
  sizesnap measure --match dist/      Fail when sizes drift from the snapshot
  sizesnap show                       Print the stored snapshot

Configuration is read from sizesnap.yaml in the project directory and from
SIZESNAP_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}

		format, err := output.ParseFormat(outputFmt)
		if err != nil {
			return err
		}
		formatter = output.NewFormatter(format, noHeaders, quiet)
		formatter.Writer = cmd.OutOrStdout()
		formatter.ErrWriter = cmd.ErrOrStderr()
		return nil
	},
}

// Execute runs the CLI
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is sizesnap.yaml in the project directory)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".",
		"project directory")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table",
		"output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false,
		"hide table headers")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"minimal output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(measureCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(showCmd)
}

// loadConfig loads the project configuration for the current invocation
func loadConfig() (*config.Config, error) {
	return config.Load(projectDir, cfgFile)
}

// GetFormatter returns the output formatter (for use by subcommands)
func GetFormatter() *output.Formatter {
	if formatter == nil {
		format, _ := output.ParseFormat(outputFmt)
		formatter = output.NewFormatter(format, noHeaders, quiet)
	}
	return formatter
}

// IsQuiet returns true if --quiet was given
func IsQuiet() bool {
	return quiet
}
