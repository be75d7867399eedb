package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	simulateDelta    float64
	simulateRotation float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Send a synthetic discrepancy through the configured alert channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		sent, err := getApp().SimulateAlert(cmd.Context(), simulateDelta, simulateRotation)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "alerts sent: %d\n", sent)
		return nil
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateDelta, "delta-heading", 30, "Delta heading in degrees")
	simulateCmd.Flags().Float64Var(&simulateRotation, "rotation", 0, "Rotation speed in degrees per second")
}
