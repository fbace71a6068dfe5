package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/ssh"

	"github.com/wlcore/wlcore/internal/compositor"
	"github.com/wlcore/wlcore/internal/datadevice"
	"github.com/wlcore/wlcore/internal/style"
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// model is the console's bubbletea introspection view: one scrollable
// viewport refreshed on a tick, listing outputs, the seat, and its
// selection/grab state.
type model struct {
	compositor     *compositor.Compositor
	seatName       string
	allowMutations bool

	viewport viewport.Model
	ready    bool

	quitting          bool
	pendingCancelKind string
}

func newModel(c *compositor.Compositor, seatName string, allowMutations bool, width, height int) *model {
	return &model{
		compositor:     c,
		seatName:       seatName,
		allowMutations: allowMutations,
		viewport:       viewport.New(width, height-2),
	}
}

func (m *model) Init() tea.Cmd {
	return tick()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 2
		m.ready = true
		m.viewport.SetContent(m.render())
		return m, nil

	case tickMsg:
		m.viewport.SetContent(m.render())
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "p":
			if m.allowMutations {
				m.quitting = true
				m.pendingCancelKind = "pointer"
				return m, tea.Quit
			}
		case "k":
			if m.allowMutations {
				m.quitting = true
				m.pendingCancelKind = "keyboard"
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	if !m.ready {
		return "loading...\n"
	}
	footer := style.SubtleStyle.Render("q quit")
	if m.allowMutations {
		footer = style.SubtleStyle.Render("q quit  p force-cancel pointer grab  k force-cancel keyboard grab")
	}
	return m.viewport.View() + "\n" + footer
}

func (m *model) render() string {
	var b strings.Builder
	b.WriteString(style.FormatAppHeader("OPERATOR CONSOLE", m.seatName))
	b.WriteString("\n\n")

	b.WriteString(style.SubheaderStyle.Render("Outputs"))
	b.WriteString("\n")
	outs := m.compositor.Outputs()
	if len(outs) == 0 {
		b.WriteString(style.SubtleStyle.Render("  (none)") + "\n")
	}
	for i, o := range outs {
		x, y := o.Position()
		w, h := o.Size()
		b.WriteString(style.FormatListItem(fmt.Sprintf("output-%d %dx%d @ (%d,%d)", i, w, h, x, y), true))
		b.WriteString("\n")
	}

	b.WriteString("\n" + style.SubheaderStyle.Render("Seat: "+m.seatName))
	b.WriteString("\n")
	s := m.compositor.Seat
	pointerGrabbed := s.PointerGrabbed()
	keyboardGrabbed := s.KeyboardGrabbed()
	b.WriteString("  " + style.FormatKeyValue("pointer grabbed", pointerGrabbed) + "\n")
	b.WriteString("  " + style.FormatKeyValue("keyboard grabbed", keyboardGrabbed) + "\n")

	if src := s.Selection(); src != nil {
		mimes := "unknown"
		if source, ok := src.(*datadevice.Source); ok {
			mimes = strings.Join(source.MimeTypes(), ", ")
		}
		b.WriteString("  " + style.FormatKeyValue("selection", mimes) + "\n")
	} else {
		b.WriteString("  " + style.FormatKeyValue("selection", "(empty)") + "\n")
	}

	return b.String()
}

// confirmForceCancelGrab runs a standalone huh confirmation bound to
// the session's terminal before a mutating action is applied.
func confirmForceCancelGrab(sess ssh.Session, kind string) bool {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Force-cancel the active %s grab?", kind)).
				Description("This ends the grab immediately, as if the client had released it.").
				Value(&confirmed),
		),
	).WithProgramOptions(tea.WithInput(sess), tea.WithOutput(sess))

	if err := form.Run(); err != nil {
		return false
	}
	return confirmed
}
