package cli

import (
	"github.com/spf13/cobra"

	"nmea-drift/internal/app"
)

var (
	parseInput     string
	parseCSVPath   string
	parsePNGPath   string
	parseScatter   string
	parseNATS      bool
	parseMaxPoints int
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Correlate a recorded NMEA log and export delta heading metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ParseOptions{
			Input:       parseInput,
			CSVPath:     parseCSVPath,
			PNGPath:     parsePNGPath,
			ScatterPath: parseScatter,
			NATS:        parseNATS,
			MaxPoints:   parseMaxPoints,
		}

		_, err := getApp().Parse(cmd.Context(), opts)
		return err
	},
}

func init() {
	parseCmd.Flags().StringVarP(&parseInput, "input", "i", "", "NMEA log file to parse")
	parseCmd.Flags().StringVar(&parseCSVPath, "csv", "", "Path to write CSV metrics")
	parseCmd.Flags().StringVar(&parsePNGPath, "png", "", "Path to write the time series chart")
	parseCmd.Flags().StringVar(&parseScatter, "scatter", "", "Path to write the delta heading vs bottom heading chart")
	parseCmd.Flags().BoolVar(&parseNATS, "nats", false, "Publish metrics to NATS (see nats.* settings)")
	parseCmd.Flags().IntVar(&parseMaxPoints, "max-points", 0, "Maximum data points per chart (defaults to config)")
	_ = parseCmd.MarkFlagRequired("input")
}
