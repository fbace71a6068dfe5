package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wlcore/wlcore/internal/compositor"
	"github.com/wlcore/wlcore/internal/config"
	"github.com/wlcore/wlcore/internal/console"
	"github.com/wlcore/wlcore/internal/datadevice"
	"github.com/wlcore/wlcore/internal/ipc"
	"github.com/wlcore/wlcore/internal/logger"
	"github.com/wlcore/wlcore/internal/output"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the compositor core and its introspection socket",
	Long: `run starts a compositor core with a single seat and data device
manager, brings up the introspection socket, and (when console.enabled
is set) the SSH operator console. It blocks until interrupted.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := config.InitWithFile(cfgFile); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Get()
	logger.SetLevel(cfg.Logging.Level)
	if cfg.Logging.FilePath != "" {
		if f, err := logger.SetupFileLogging("wlcored"); err != nil {
			logger.Warnf("file logging disabled: %v", err)
		} else {
			defer f.Close()
		}
	}

	c := compositor.New()
	for _, profile := range cfg.Outputs.Profiles {
		if !profile.Enabled {
			continue
		}
		c.AddOutput(newConfiguredOutput(profile), profile.Auto, profile.X, profile.Y)
	}

	handler := &compositorHandler{compositor: c, seatName: cfg.Seat.Name}
	server, err := ipc.NewSocketServer(handler)
	if err != nil {
		return fmt.Errorf("creating introspection socket: %w", err)
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting introspection socket: %w", err)
	}
	defer server.Stop()
	logger.Infof("introspection socket listening on %s", cfg.IPC.SocketPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Console.Enabled {
		consoleServer := console.NewServer(cfg.Console.ListenAddress, cfg.Console.Port,
			cfg.Console.HostKeyPath, cfg.Console.AuthorizedKeysPath, cfg.Console.AllowMutations,
			cfg.Console.MaxSessions, c, cfg.Seat.Name)
		if err := consoleServer.Start(ctx); err != nil {
			return fmt.Errorf("starting operator console: %w", err)
		}
		defer consoleServer.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
	return nil
}

// staticBackend is a no-op output.Backend for outputs brought up from
// saved config profiles rather than a real hardware/headless driver.
// The library's consumers supply their own Backend; the reference
// daemon only needs one to exercise the output/layout wiring.
type staticBackend struct{}

func (staticBackend) SetMode(mode *output.Mode) bool { return true }
func (staticBackend) Enable(enable bool)             {}
func (staticBackend) Transform(t output.Transform)   {}
func (staticBackend) SetCursor(buf []byte, stride int32, width, height uint32, hotspotX, hotspotY int32, hardware bool) bool {
	return false
}
func (staticBackend) MoveCursor(x, y int32) bool          { return false }
func (staticBackend) MakeCurrent()                        {}
func (staticBackend) SwapBuffers()                        {}
func (staticBackend) Destroy()                            {}
func (staticBackend) SetGamma(size uint32, r, g, b []uint16) {}
func (staticBackend) GammaSize() uint32                   { return 0 }

func newConfiguredOutput(profile config.OutputProfile) *output.Output {
	out := output.New(staticBackend{})
	mode := &output.Mode{Width: profile.Width, Height: profile.Height, RefreshMHz: profile.Refresh, Preferred: true}
	out.AddMode(mode)
	out.SetMode(mode)
	return out
}

// compositorHandler answers introspection queries against a live
// compositor. The reference daemon runs a single seat, so seat lookups
// compare against the configured seat name rather than a registry.
type compositorHandler struct {
	compositor *compositor.Compositor
	seatName   string
}

func (h *compositorHandler) HandleListOutputs() (*ipc.Message, error) {
	outs := h.compositor.Outputs()
	infos := make([]ipc.OutputInfo, 0, len(outs))
	for i, o := range outs {
		x, y := o.Position()
		w, hgt := o.Size()
		infos = append(infos, ipc.OutputInfo{
			Name:    fmt.Sprintf("output-%d", i),
			X:       x,
			Y:       y,
			Width:   w,
			Height:  hgt,
			Scale:   1,
			Enabled: true,
		})
	}
	return ipc.NewOutputsResponseMessage(infos)
}

func (h *compositorHandler) HandleListSeats() (*ipc.Message, error) {
	s := h.compositor.Seat
	pointerState := s.PointerState()
	info := ipc.SeatInfo{
		Name:            h.seatName,
		HasSelection:    s.Selection() != nil,
		DragActive:      s.PointerGrabbed(),
		PointerGrabbed:  s.PointerGrabbed(),
		KeyboardGrabbed: s.KeyboardGrabbed(),
	}
	if pointerState.FocusedSurface != nil {
		info.PointerFocus = "focused"
	}
	return ipc.NewSeatsResponseMessage([]ipc.SeatInfo{info})
}

func (h *compositorHandler) HandleSelectionQuery(query *ipc.SelectionQuery) (*ipc.Message, error) {
	if query.SeatName != h.seatName {
		return ipc.NewErrorMessage(fmt.Sprintf("unknown seat %q", query.SeatName))
	}
	src := h.compositor.Seat.Selection()
	if src == nil {
		return ipc.NewSelectionResponseMessage(nil, false)
	}
	if source, ok := src.(*datadevice.Source); ok {
		return ipc.NewSelectionResponseMessage(source.MimeTypes(), true)
	}
	return ipc.NewSelectionResponseMessage(nil, true)
}

func (h *compositorHandler) HandleCancelGrab(cmdIn *ipc.CancelGrabCommand) (*ipc.Message, error) {
	if cmdIn.SeatName != h.seatName {
		return ipc.NewErrorMessage(fmt.Sprintf("unknown seat %q", cmdIn.SeatName))
	}
	switch cmdIn.Kind {
	case "pointer":
		h.compositor.Seat.ForceCancelPointerGrab()
	case "keyboard":
		h.compositor.Seat.ForceCancelKeyboardGrab()
	}
	return ipc.NewAckMessage()
}
