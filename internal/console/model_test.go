package console

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlcore/wlcore/internal/compositor"
	"github.com/wlcore/wlcore/internal/output"
)

type stubBackend struct{}

func (stubBackend) SetMode(mode *output.Mode) bool                                   { return true }
func (stubBackend) Enable(enable bool)                                               {}
func (stubBackend) Transform(t output.Transform)                                     {}
func (stubBackend) SetCursor(buf []byte, stride int32, w, h uint32, hx, hy int32, hw bool) bool {
	return false
}
func (stubBackend) MoveCursor(x, y int32) bool             { return false }
func (stubBackend) MakeCurrent()                           {}
func (stubBackend) SwapBuffers()                            {}
func (stubBackend) Destroy()                                {}
func (stubBackend) SetGamma(size uint32, r, g, b []uint16) {}
func (stubBackend) GammaSize() uint32                       { return 0 }

func TestModelRendersOutputsAndSeat(t *testing.T) {
	c := compositor.New()
	out := output.New(stubBackend{})
	c.AddOutput(out, false, 10, 20)

	m := newModel(c, "seat0", false, 80, 24)
	content := m.render()

	assert.Contains(t, content, "seat0")
	assert.Contains(t, content, "output-0")
	assert.Contains(t, content, "(10,20)")
	assert.Contains(t, content, "(empty)")
}

func TestModelQuitsOnQ(t *testing.T) {
	m := newModel(compositor.New(), "seat0", false, 80, 24)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	fm := updated.(*model)
	require.True(t, fm.quitting)
	require.NotNil(t, cmd)
}

func TestModelIgnoresForceCancelKeysWithoutAllowMutations(t *testing.T) {
	m := newModel(compositor.New(), "seat0", false, 80, 24)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})

	fm := updated.(*model)
	require.False(t, fm.quitting)
	require.Empty(t, fm.pendingCancelKind)
}

func TestModelForceCancelKeyWithAllowMutations(t *testing.T) {
	m := newModel(compositor.New(), "seat0", true, 80, 24)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})

	fm := updated.(*model)
	require.True(t, fm.quitting)
	require.Equal(t, "pointer", fm.pendingCancelKind)
}

func TestModelViewIncludesFooterHint(t *testing.T) {
	m := newModel(compositor.New(), "seat0", true, 80, 24)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	view := m.View()
	assert.True(t, strings.Contains(view, "force-cancel"))
}
