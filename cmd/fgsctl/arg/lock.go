package arg

import (
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the screen",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call("Lock")
	},
}

func init() {
	rootCmd.AddCommand(lockCmd)
}
