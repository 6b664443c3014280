package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/sizesnap/internal/sizesnap"
)

var showCmd = &cobra.Command{
	Use:   "show [snapshot]",
	Short: "Print a stored snapshot",
	Long: `Print a stored snapshot as a table, JSON or YAML.

Without an argument the snapshot configured for the project is shown.

Examples:
  sizesnap show
  sizesnap show -o yaml
  sizesnap show s3://ci-sizes/app/main.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path, root := "", "."
	if len(args) == 1 {
		path = args[0]
	} else {
		options, err := sizesnap.ParseOptions(cfg.Options)
		if err != nil {
			return err
		}
		path, root = options.SnapshotPath, projectDir
	}

	snap, err := loadSnapshot(cmd.Context(), path, root, cfg.S3)
	if err != nil {
		return err
	}
	return GetFormatter().PrintSnapshot(snap)
}
