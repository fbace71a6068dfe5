// Package layout implements the Output Layout (spec section 4.2): the
// arrangement of outputs in one shared global coordinate space, plus
// the auto-placement algorithm that lines unpositioned outputs up to
// the right of the manually placed ones. Grounded on
// original_source/types/wlr_output_layout.c.
package layout

import (
	"sync"

	"github.com/wlcore/wlcore/internal/output"
	"github.com/wlcore/wlcore/internal/wire"
)

// Box is an axis-aligned rectangle in layout coordinates.
type Box struct {
	X, Y, Width, Height int32
}

// ContainsPoint reports whether (x,y) falls within b.
func (b Box) ContainsPoint(x, y float64) bool {
	return x >= float64(b.X) && x < float64(b.X+b.Width) &&
		y >= float64(b.Y) && y < float64(b.Y+b.Height)
}

// Intersects reports whether b and other share any area.
func (b Box) Intersects(other Box) bool {
	return b.X < other.X+other.Width && other.X < b.X+b.Width &&
		b.Y < other.Y+other.Height && other.Y < b.Y+b.Height
}

// ClosestPoint returns the point on b nearest (x,y), clamping each
// axis independently.
func (b Box) ClosestPoint(x, y float64) (float64, float64) {
	cx := clamp(x, float64(b.X), float64(b.X+b.Width))
	cy := clamp(y, float64(b.Y), float64(b.Y+b.Height))
	return cx, cy
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type entry struct {
	output   *output.Output
	x, y     int32
	auto     bool
	resListener *wire.Listener
	dstListener *wire.Listener
}

func (e *entry) box() Box {
	w, h := e.output.EffectiveResolution()
	return Box{X: e.x, Y: e.y, Width: w, Height: h}
}

// Layout arranges a set of outputs into one coordinate space.
type Layout struct {
	mu       sync.Mutex
	entries  []*entry
	onChange  wire.Signal
	onDestroy wire.Signal
}

// New creates an empty layout.
func New() *Layout {
	return &Layout{}
}

func (l *Layout) find(out *output.Output) *entry {
	for _, e := range l.entries {
		if e.output == out {
			return e
		}
	}
	return nil
}

func (l *Layout) getOrCreate(out *output.Output) *entry {
	if e := l.find(out); e != nil {
		return e
	}
	e := &entry{output: out}
	e.resListener = out.OnResolution(func() { l.Reconfigure() })
	e.dstListener = out.OnDestroy(func() {
		l.mu.Lock()
		l.removeLocked(out)
		l.mu.Unlock()
		l.Reconfigure()
	})
	l.entries = append(l.entries, e)
	return e
}

func (l *Layout) removeLocked(out *output.Output) {
	for i, e := range l.entries {
		if e.output == out {
			e.resListener.Remove()
			e.dstListener.Remove()
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// Add pins out at the given manual position.
func (l *Layout) Add(out *output.Output, x, y int32) {
	l.mu.Lock()
	e := l.getOrCreate(out)
	e.x, e.y = x, y
	e.auto = false
	l.mu.Unlock()
	l.Reconfigure()
}

// AddAuto flags out for auto-placement.
func (l *Layout) AddAuto(out *output.Output) {
	l.mu.Lock()
	e := l.getOrCreate(out)
	e.auto = true
	l.mu.Unlock()
	l.Reconfigure()
}

// Remove drops out from the layout.
func (l *Layout) Remove(out *output.Output) {
	l.mu.Lock()
	l.removeLocked(out)
	l.mu.Unlock()
	l.Reconfigure()
}

// Move repositions an already-added output, demoting it from
// auto-placement if it was flagged auto. No-op if out isn't in the
// layout.
func (l *Layout) Move(out *output.Output, x, y int32) {
	l.mu.Lock()
	e := l.find(out)
	if e == nil {
		l.mu.Unlock()
		return
	}
	e.x, e.y = x, y
	e.auto = false
	l.mu.Unlock()
	l.Reconfigure()
}

// Get reports whether out is in the layout and its current box.
func (l *Layout) Get(out *output.Output) (Box, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.find(out)
	if e == nil {
		return Box{}, false
	}
	return e.box(), true
}

// OutputAt returns the output whose box contains (x,y), or nil.
func (l *Layout) OutputAt(x, y float64) *output.Output {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.box().ContainsPoint(x, y) {
			return e.output
		}
	}
	return nil
}

// Intersects reports whether reference's box overlaps the given
// rectangle. False if reference is not in the layout.
func (l *Layout) Intersects(reference *output.Output, x1, y1, x2, y2 int32) bool {
	l.mu.Lock()
	e := l.find(reference)
	l.mu.Unlock()
	if e == nil {
		return false
	}
	target := Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
	return e.box().Intersects(target)
}

// OutputCoords translates a point in layout space into reference's own
// local coordinate space.
func (l *Layout) OutputCoords(reference *output.Output, x, y float64) (float64, float64) {
	l.mu.Lock()
	e := l.find(reference)
	l.mu.Unlock()
	if e == nil {
		return x, y
	}
	return x - float64(e.x), y - float64(e.y)
}

// ClosestPoint returns the nearest point to (x,y) on reference's box,
// or across every output's box if reference is nil, by squared
// distance.
func (l *Layout) ClosestPoint(reference *output.Output, x, y float64) (float64, float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	minDist := -1.0
	var destX, destY float64
	for _, e := range l.entries {
		if reference != nil && e.output != reference {
			continue
		}
		ox, oy := e.box().ClosestPoint(x, y)
		d := (x-ox)*(x-ox) + (y-oy)*(y-oy)
		if minDist < 0 || d < minDist {
			minDist = d
			destX, destY = ox, oy
		}
	}
	return destX, destY
}

// GetBox returns reference's box, or the union extent of every output
// in the layout when reference is nil.
func (l *Layout) GetBox(reference *output.Output) (Box, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if reference != nil {
		e := l.find(reference)
		if e == nil {
			return Box{}, false
		}
		return e.box(), true
	}

	if len(l.entries) == 0 {
		return Box{}, false
	}

	minX, minY := int32(1<<31-1), int32(1<<31-1)
	maxX, maxY := -int32(1<<31-1)-1, -int32(1<<31-1)-1
	for _, e := range l.entries {
		b := e.box()
		if b.X < minX {
			minX = b.X
		}
		if b.Y < minY {
			minY = b.Y
		}
		if b.X+b.Width > maxX {
			maxX = b.X + b.Width
		}
		if b.Y+b.Height > maxY {
			maxY = b.Y + b.Height
		}
	}
	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// GetCenterOutput returns the first output, in insertion order, whose
// box (edges included) holds the point closest to the union box's
// center, or nil for an empty layout.
func (l *Layout) GetCenterOutput() *output.Output {
	box, ok := l.GetBox(nil)
	if !ok {
		return nil
	}
	centerX := float64(box.Width)/2 + float64(box.X)
	centerY := float64(box.Height)/2 + float64(box.Y)
	x, y := l.ClosestPoint(nil, centerX, centerY)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if cx, cy := e.box().ClosestPoint(x, y); cx == x && cy == y {
			return e.output
		}
	}
	return nil
}

// Reconfigure recomputes auto-placed output positions and pushes the
// result to every output, then fires the change signal. Runs on every
// mutation and on any member output's resolution change.
//
// Step 1 scans the non-auto entries for the rightmost occupied x and
// the y of whichever entry attained it; the comparison is strict, so a
// tie keeps whichever entry reached that x first (insertion order).
// Step 2 walks auto entries in insertion order, stacking them to the
// right of that point. Heights play no part: every auto entry takes the
// y of the entry that attained the rightmost x, whatever the heights
// involved.
func (l *Layout) Reconfigure() {
	l.mu.Lock()

	maxX, maxXY := int32(0), int32(0)
	found := false
	for _, e := range l.entries {
		if e.auto {
			continue
		}
		b := e.box()
		if !found || b.X+b.Width > maxX {
			maxX = b.X + b.Width
			maxXY = b.Y
			found = true
		}
	}

	for _, e := range l.entries {
		if !e.auto {
			continue
		}
		b := e.box()
		e.x, e.y = maxX, maxXY
		maxX += b.Width
	}

	entries := append([]*entry(nil), l.entries...)
	l.mu.Unlock()

	for _, e := range entries {
		e.output.SetPosition(e.x, e.y)
	}
	l.onChange.Emit(l)
}

// OnChange subscribes to layout-reconfigure notifications.
func (l *Layout) OnChange(fn func()) *wire.Listener {
	return l.onChange.Add(func(any) { fn() })
}

// OnDestroy subscribes to the layout's destroy notification.
func (l *Layout) OnDestroy(fn func()) *wire.Listener {
	return l.onDestroy.Add(func(any) { fn() })
}

// Destroy tears down every output entry's listeners.
func (l *Layout) Destroy() {
	l.onDestroy.Emit(l)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		e.resListener.Remove()
		e.dstListener.Remove()
	}
	l.entries = nil
}
