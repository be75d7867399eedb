package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nmea-drift/internal/app"
)

var (
	showInput string
	showLimit int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the last correlation metrics of a log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Input: showInput,
			Limit: showLimit,
		}

		_, err := getApp().Show(cmd.Context(), opts)
		return err
	},
}

func init() {
	showCmd.Flags().StringVarP(&showInput, "input", "i", "", "NMEA log file to parse")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of metrics to display")
	_ = showCmd.MarkFlagRequired("input")
}
