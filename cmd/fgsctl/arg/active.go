package arg

import (
	"fmt"

	"github.com/fauxgnome/fauxscreensaver/internal/ipc"
	"github.com/spf13/cobra"
)

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Blank the screen",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActive(true)
	},
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Unblank the screen",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActive(false)
	},
}

func setActive(value bool) error {
	conn, obj, err := screensaverObject()
	if err != nil {
		return err
	}
	defer conn.Close()
	if call := obj.Call(ipc.InterfaceName+".SetActive", 0, value); call.Err != nil {
		return fmt.Errorf("SetActive failed: %w", call.Err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(deactivateCmd)
}
