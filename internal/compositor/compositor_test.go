package compositor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlcore/wlcore/internal/output"
)

type fakeBackend struct{}

func (fakeBackend) SetMode(mode *output.Mode) bool { return true }
func (fakeBackend) Enable(enable bool)              {}
func (fakeBackend) Transform(t output.Transform)    {}
func (fakeBackend) SetCursor(buf []byte, stride int32, width, height uint32, hotspotX, hotspotY int32, hardware bool) bool {
	return false
}
func (fakeBackend) MoveCursor(x, y int32) bool { return true }
func (fakeBackend) MakeCurrent()               {}
func (fakeBackend) SwapBuffers()               {}
func (fakeBackend) Destroy()                   {}
func (fakeBackend) SetGamma(size uint32, r, g, b []uint16) {}
func (fakeBackend) GammaSize() uint32          { return 0 }

func TestAddOutputRegistersItInLayoutAndOutputs(t *testing.T) {
	c := New()
	o := output.New(fakeBackend{})
	c.AddOutput(o, true, 0, 0)

	require.Len(t, c.Outputs(), 1)
	assert.Same(t, o, c.Outputs()[0])

	_, ok := c.Layout.Get(o)
	assert.True(t, ok)
}

func TestRemoveOutputDropsItFromLayoutAndOutputs(t *testing.T) {
	c := New()
	o := output.New(fakeBackend{})
	c.AddOutput(o, false, 100, 200)
	c.RemoveOutput(o)

	assert.Empty(t, c.Outputs())
	_, ok := c.Layout.Get(o)
	assert.False(t, ok)
}

func TestClientGoneUnbindsSeatHandle(t *testing.T) {
	c := New()
	client := c.Registry.NewClient()
	handle := c.Seat.HandleFor(client)

	calls := 0
	handle.OnUnbound(func() { calls++ })

	c.Registry.DisconnectClient(client)
	assert.Equal(t, 1, calls)

	_, ok := c.Seat.LookupHandle(client)
	assert.False(t, ok)
}
