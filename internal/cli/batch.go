package cli

import (
	"github.com/spf13/cobra"

	"nmea-drift/internal/app"
)

var (
	batchDir     string
	batchPattern string
	batchOutDir  string
	batchPNG     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Parse every log of a directory into CSV files",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.BatchOptions{
			Dir:     batchDir,
			Pattern: batchPattern,
			OutDir:  batchOutDir,
			PNG:     batchPNG,
		}

		_, err := getApp().Batch(cmd.Context(), opts)
		return err
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", ".", "Directory holding the logs")
	batchCmd.Flags().StringVar(&batchPattern, "pattern", "*.log", "Glob selecting the logs")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "Directory for the exports (defaults to --dir)")
	batchCmd.Flags().BoolVar(&batchPNG, "png", false, "Also render charts for each log")
}
