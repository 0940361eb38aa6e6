package arg

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fgsctl",
	Short: "fgsctl is the command line tool for fauxscreensaverd",
	Long: `fgsctl talks to the org.gnome.ScreenSaver service exported by
			fauxscreensaverd on the session bus. You can use it to query
			screensaver state, lock the screen, and more.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
