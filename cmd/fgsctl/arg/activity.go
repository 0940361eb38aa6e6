package arg

import (
	"github.com/spf13/cobra"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Simulate user activity, waking the screen",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call("SimulateUserActivity")
	},
}

func init() {
	rootCmd.AddCommand(activityCmd)
}
