package layout

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

func newSizedOutput(w, h int32) *output.Output {
	o := output.New(fakeBackend{})
	o.UpdateSize(w, h)
	return o
}

func TestAddAutoStacksToTheRightOfManualEntries(t *testing.T) {
	l := New()
	o1 := newSizedOutput(1920, 1080)
	o2 := newSizedOutput(1280, 720)

	l.Add(o1, 0, 0)
	l.AddAuto(o2)

	box2, ok := l.Get(o2)
	require.True(t, ok)
	assert.Equal(t, int32(1920), box2.X)
	assert.Equal(t, int32(0), box2.Y)
}

func TestReconfigureTieKeepsFirstEntryAtMaxX(t *testing.T) {
	l := New()
	o1 := newSizedOutput(1000, 1000)
	o2 := newSizedOutput(1000, 500)
	o3 := newSizedOutput(200, 200)

	l.Add(o1, 0, 0)
	l.Add(o2, 0, 1000) // same right edge (x+width=1000) as o1, different y
	l.AddAuto(o3)

	box3, ok := l.Get(o3)
	require.True(t, ok)
	assert.Equal(t, int32(1000), box3.X)
	assert.Equal(t, int32(0), box3.Y) // o1 reached max_x first, so its y wins
}

func TestGetCenterOutputOnTwoOutputLayout(t *testing.T) {
	l := New()
	o1 := newSizedOutput(1000, 1000)
	o2 := newSizedOutput(1000, 1000)

	l.Add(o1, 0, 0)
	l.Add(o2, 1000, 0)

	assert.Same(t, o1, l.GetCenterOutput())
}

func TestMoveDemotesAutoFlag(t *testing.T) {
	l := New()
	o1 := newSizedOutput(1920, 1080)
	o2 := newSizedOutput(800, 600)

	l.Add(o1, 0, 0)
	l.AddAuto(o2)

	l.Move(o2, 50, 50)
	box2, ok := l.Get(o2)
	require.True(t, ok)
	assert.Equal(t, int32(50), box2.X)
	assert.Equal(t, int32(50), box2.Y)

	// A later reconfigure (triggered by adding a third output) must not
	// move o2 back to auto-placement.
	o3 := newSizedOutput(200, 200)
	l.AddAuto(o3)
	box2Again, _ := l.Get(o2)
	assert.Equal(t, box2, box2Again)
}

func TestGetBoxUnionExtents(t *testing.T) {
	l := New()
	o1 := newSizedOutput(1000, 1000)
	o2 := newSizedOutput(500, 2000)

	l.Add(o1, 0, 0)
	l.Add(o2, 1000, -500)

	box, ok := l.GetBox(nil)
	require.True(t, ok)
	assert.Equal(t, Box{X: 0, Y: -500, Width: 1500, Height: 2000}, box)
}

func TestClosestPointClampsToNearestOutput(t *testing.T) {
	l := New()
	o1 := newSizedOutput(1000, 1000)
	l.Add(o1, 0, 0)

	x, y := l.ClosestPoint(nil, -50, 500)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 500.0, y)
}

func TestOutputAtFindsContainingOutput(t *testing.T) {
	l := New()
	o1 := newSizedOutput(1000, 1000)
	o2 := newSizedOutput(1000, 1000)
	l.Add(o1, 0, 0)
	l.Add(o2, 1000, 0)

	assert.Same(t, o2, l.OutputAt(1500, 500))
	assert.Nil(t, l.OutputAt(3000, 3000))
}

func TestRemoveDropsEntryAndReconfiguresSurvivors(t *testing.T) {
	l := New()
	o1 := newSizedOutput(1000, 1000)
	o2 := newSizedOutput(500, 500)
	l.Add(o1, 0, 0)
	l.AddAuto(o2)

	l.Remove(o1)
	_, ok := l.Get(o1)
	assert.False(t, ok)

	// o2 is now the only (auto) entry: max_x scan finds no non-auto
	// entries, so it's placed at the origin.
	box2, ok := l.Get(o2)
	require.True(t, ok)
	assert.Equal(t, int32(0), box2.X)
	assert.Equal(t, int32(0), box2.Y)
}

func TestOutputResolutionChangeTriggersReconfigure(t *testing.T) {
	l := New()
	o1 := newSizedOutput(1000, 1000)
	o2 := newSizedOutput(500, 500)
	l.Add(o1, 0, 0)
	l.AddAuto(o2)

	o1.UpdateSize(2000, 1000)
	box2, ok := l.Get(o2)
	require.True(t, ok)
	assert.Equal(t, int32(2000), box2.X)
}

func TestOnChangeFiresOnMutation(t *testing.T) {
	l := New()
	calls := 0
	l.OnChange(func() { calls++ })

	o1 := newSizedOutput(1000, 1000)
	l.Add(o1, 0, 0)
	assert.Equal(t, 1, calls)

	l.Move(o1, 10, 10)
	assert.Equal(t, 2, calls)
}
