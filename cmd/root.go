package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	// cfgFile holds the --config flag value, consumed by config.InitWithFile.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "wlcored",
		Short: "wlcored - a Wayland compositor core",
		Long: `wlcored is the display-server core of a Wayland compositor: it owns the
resource registry, output layout, seat input, and clipboard/drag-and-drop
data devices, and exposes a local introspection socket and an optional
SSH operator console for observing and nudging a running session.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default search: /etc/wlcored, $HOME/.config/wlcored, .)")
}

// Exit with error message
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
