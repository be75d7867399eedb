package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nmea-drift/internal/app"
)

var (
	splitInput  string
	splitOutDir string
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split a log holding several sessions into one file per session",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := getApp().Split(app.SplitOptions{
			Input:  splitInput,
			OutDir: splitOutDir,
		})
		if err != nil {
			return err
		}
		for _, file := range result.Files {
			fmt.Fprintln(cmd.OutOrStdout(), file)
		}
		return nil
	},
}

func init() {
	splitCmd.Flags().StringVarP(&splitInput, "input", "i", "", "NMEA log file to split")
	splitCmd.Flags().StringVar(&splitOutDir, "out-dir", "", "Directory for the session files (defaults to the input directory)")
	_ = splitCmd.MarkFlagRequired("input")
}
