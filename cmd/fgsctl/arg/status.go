package arg

import (
	"fmt"

	"github.com/fauxgnome/fauxscreensaver/internal/ipc"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current screensaver state",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, obj, err := screensaverObject()
		if err != nil {
			return err
		}
		defer conn.Close()

		var active bool
		if err := obj.Call(ipc.InterfaceName+".GetActive", 0).Store(&active); err != nil {
			return fmt.Errorf("GetActive failed: %w", err)
		}
		fmt.Printf("active: %t\n", active)

		if active {
			var seconds uint32
			if err := obj.Call(ipc.InterfaceName+".GetActiveTime", 0).Store(&seconds); err != nil {
				return fmt.Errorf("GetActiveTime failed: %w", err)
			}
			fmt.Printf("active for: %ds\n", seconds)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
