package arg

import (
	"github.com/spf13/cobra"
)

var quitCmd = &cobra.Command{
	Use:   "quit",
	Short: "Ask fauxscreensaverd to exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call("Quit")
	},
}

func init() {
	rootCmd.AddCommand(quitCmd)
}
