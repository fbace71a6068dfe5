package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wlcore/wlcore/internal/config"
	"github.com/wlcore/wlcore/internal/ipc"
	"github.com/wlcore/wlcore/internal/style"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running compositor's outputs, seats, and selection",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := config.InitWithFile(cfgFile); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !ipc.IsWlcoreRunning() {
		fmt.Println(style.FormatStatus(false, "wlcored is not running"))
		return nil
	}

	client, err := ipc.NewClient()
	if err != nil {
		return fmt.Errorf("creating IPC client: %w", err)
	}
	defer client.Close()

	fmt.Println(style.FormatAppHeader("WLCORED STATUS", "connected"))

	outputs, err := client.ListOutputs()
	if err != nil {
		return fmt.Errorf("listing outputs: %w", err)
	}
	fmt.Println(style.SubheaderStyle.Render("Outputs"))
	if len(outputs.Outputs) == 0 {
		fmt.Println(style.SubtleStyle.Render("  (none)"))
	}
	for _, o := range outputs.Outputs {
		fmt.Println(style.FormatListItem(fmt.Sprintf("%s %dx%d @ (%d,%d)", o.Name, o.Width, o.Height, o.X, o.Y), o.Enabled))
	}

	seats, err := client.ListSeats()
	if err != nil {
		return fmt.Errorf("listing seats: %w", err)
	}
	fmt.Println(style.SubheaderStyle.Render("Seats"))
	for _, s := range seats.Seats {
		fmt.Println(style.FormatListItem(s.Name, s.PointerFocus != "" || s.KeyboardFocus != ""))
		fmt.Println("   " + style.FormatKeyValue("selection", s.HasSelection))
		fmt.Println("   " + style.FormatKeyValue("drag active", s.DragActive))
		fmt.Println("   " + style.FormatKeyValue("pointer grabbed", s.PointerGrabbed))
		fmt.Println("   " + style.FormatKeyValue("keyboard grabbed", s.KeyboardGrabbed))

		sel, err := client.QuerySelection(s.Name)
		if err == nil && sel.HasSource {
			fmt.Println("   " + style.FormatKeyValue("selection mime types", sel.MimeTypes))
		}
	}

	return nil
}
