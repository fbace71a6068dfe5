// Package output implements the Output global (spec section 4.1):
// mode/geometry/scale advertisement over the wire, and the hardware-
// first/software-fallback cursor path. Grounded on
// original_source/types/wlr_output.c.
package output

import (
	"sync"

	"github.com/wlcore/wlcore/internal/registry"
	"github.com/wlcore/wlcore/internal/surface"
	"github.com/wlcore/wlcore/internal/wire"
)

// Transform mirrors wl_output's transform enum. Odd values rotate 90
// or 270 degrees and swap width/height in EffectiveResolution.
type Transform int

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

// Mode is one entry in an output's supported mode list.
type Mode struct {
	Width, Height int32
	RefreshMHz    int32
	Preferred     bool
}

// Backend is the capability set a concrete output driver must provide,
// separating monitor discovery/mode-setting from the generic output
// manager.
type Backend interface {
	SetMode(mode *Mode) bool
	Enable(enable bool)
	Transform(t Transform)
	// SetCursor attempts a hardware cursor upload. hardware is false
	// only for the hotspot-only update SetCursorSurface makes when the
	// already-bound surface is bound again (buf is nil then); every
	// other call passes true. Returns false to request the software
	// fallback.
	SetCursor(buf []byte, stride int32, width, height uint32, hotspotX, hotspotY int32, hardware bool) bool
	MoveCursor(x, y int32) bool
	MakeCurrent()
	SwapBuffers()
	Destroy()
	SetGamma(size uint32, r, g, b []uint16)
	GammaSize() uint32
}

const cursorSurfaceRole = "wl_pointer-cursor"

type cursorState struct {
	isSW               bool
	width, height      uint32
	hotspotX, hotspotY int32
	x, y               int32
	texture            []byte // software-composited ARGB8888 pixels

	surf            *surface.Surface
	commitListener  *wire.Listener
	destroyListener *wire.Listener
}

// Output is a display sink: a mode list, a logical position in the
// layout, and cursor state. One Output is exposed to every client as
// a single wl_output global with per-client resource fan-out.
type Output struct {
	mu      sync.Mutex
	backend Backend

	globalUp bool
	resources map[registry.ClientID]*registry.Resource

	lx, ly                 int32
	physWidth, physHeight  int32
	subpixel               uint32
	make, model            string
	transform              Transform
	scale                  float64

	width, height int32
	modes         []*Mode
	currentMode   *Mode

	cursor cursorState

	onFrame       wire.Signal
	onSwapBuffers wire.Signal
	onResolution  wire.Signal
	onDestroy     wire.Signal
}

// New initializes an output bound to backend. Initial transform is
// identity and initial scale is 1, matching wlr_output_init.
func New(backend Backend) *Output {
	return &Output{
		backend:   backend,
		resources: make(map[registry.ClientID]*registry.Resource),
		transform: TransformNormal,
		scale:     1,
	}
}

// SetGeometry sets the physical properties advertised in the geometry
// event. Does not itself trigger a resend; callers that change
// geometry after clients are bound should follow with SetPosition or
// an explicit resend.
func (o *Output) SetGeometry(physWidth, physHeight int32, subpixel uint32, make, model string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.physWidth, o.physHeight = physWidth, physHeight
	o.subpixel = subpixel
	o.make, o.model = make, model
}

// AddMode appends a supported mode.
func (o *Output) AddMode(m *Mode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.modes = append(o.modes, m)
}

// CreateGlobal exposes the output on the wire. Idempotent.
func (o *Output) CreateGlobal() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.globalUp = true
}

// DestroyGlobal removes every client resource and tears down the
// global.
func (o *Output) DestroyGlobal() {
	o.mu.Lock()
	resources := make([]*registry.Resource, 0, len(o.resources))
	for id, r := range o.resources {
		resources = append(resources, r)
		delete(o.resources, id)
	}
	o.globalUp = false
	o.mu.Unlock()
	for _, r := range resources {
		r.Destroy()
	}
}

// Bind creates a client resource at the given negotiated version and
// sends it the output's current state, the wire equivalent of
// wl_output_bind + wl_output_send_to_resource.
func (o *Output) Bind(client registry.ClientID, version uint32) *registry.Resource {
	o.mu.Lock()
	r := registry.NewResource(client, "wl_output", version, o)
	o.resources[client] = r
	r.AddDestroyHook(func(*registry.Resource) {
		o.mu.Lock()
		delete(o.resources, client)
		o.mu.Unlock()
	})
	o.mu.Unlock()

	o.sendGeometry(r)
	o.sendModes(r)
	o.sendScale(r)
	o.sendDone(r)
	return r
}

func (o *Output) sendGeometry(r *registry.Resource) {
	o.mu.Lock()
	lx, ly, pw, ph, sp, mk, md, tr := o.lx, o.ly, o.physWidth, o.physHeight, o.subpixel, o.make, o.model, o.transform
	o.mu.Unlock()
	r.Emit(wire.OutputGeometrySince, "geometry", lx, ly, pw, ph, sp, mk, md, tr)
}

func (o *Output) sendModes(r *registry.Resource) {
	o.mu.Lock()
	modes := append([]*Mode(nil), o.modes...)
	current := o.currentMode
	width, height := o.width, o.height
	o.mu.Unlock()

	if len(modes) == 0 {
		r.Emit(wire.OutputModeSince, "mode", flagsCurrent(true), width, height, int32(0))
		return
	}
	for _, m := range modes {
		r.Emit(wire.OutputModeSince, "mode", flagsCurrent(m == current), m.Width, m.Height, m.RefreshMHz)
	}
}

func (o *Output) sendCurrentMode(r *registry.Resource) {
	o.mu.Lock()
	current := o.currentMode
	width, height := o.width, o.height
	o.mu.Unlock()

	if current == nil {
		r.Emit(wire.OutputModeSince, "mode", flagsCurrent(true), width, height, int32(0))
		return
	}
	r.Emit(wire.OutputModeSince, "mode", flagsCurrent(true), current.Width, current.Height, current.RefreshMHz)
}

func (o *Output) sendScale(r *registry.Resource) {
	o.mu.Lock()
	scale := o.scale
	o.mu.Unlock()
	r.Emit(wire.OutputScaleSince, "scale", scale)
}

func (o *Output) sendDone(r *registry.Resource) {
	r.Emit(wire.OutputDoneSince, "done")
}

// flagsCurrent mirrors the original's filtering of the stored
// "preferred" flag on emit, replaced with "current" for the active
// mode; non-current modes carry no flags here since Preferred is
// never advertised verbatim.
func flagsCurrent(isCurrent bool) uint32 {
	if isCurrent {
		return 1 // WL_OUTPUT_MODE_CURRENT
	}
	return 0
}

func (o *Output) eachResource(fn func(*registry.Resource)) {
	o.mu.Lock()
	resources := make([]*registry.Resource, 0, len(o.resources))
	for _, r := range o.resources {
		resources = append(resources, r)
	}
	o.mu.Unlock()
	for _, r := range resources {
		fn(r)
	}
}

// SetMode asks the backend to switch modes. On success the transform
// matrix is recomputed (a no-op placeholder here: no renderer backs
// this library) and the current mode is re-advertised to every bound
// client.
func (o *Output) SetMode(mode *Mode) bool {
	if o.backend == nil || !o.backend.SetMode(mode) {
		return false
	}
	o.mu.Lock()
	o.currentMode = mode
	o.width, o.height = mode.Width, mode.Height
	o.mu.Unlock()
	o.onResolution.Emit(o)
	o.eachResource(o.sendCurrentMode)
	return true
}

// UpdateSize is for modeless outputs: it sets width/height directly
// and re-advertises, the same resend path SetMode takes.
func (o *Output) UpdateSize(width, height int32) {
	o.mu.Lock()
	o.width, o.height = width, height
	up := o.globalUp
	o.mu.Unlock()
	o.onResolution.Emit(o)
	if up {
		o.eachResource(o.sendCurrentMode)
	}
}

// SetPosition repositions the output in the layout's global
// coordinate space. No-op if unchanged; otherwise the full geometry
// is re-sent to every client resource.
func (o *Output) SetPosition(lx, ly int32) {
	o.mu.Lock()
	if lx == o.lx && ly == o.ly {
		o.mu.Unlock()
		return
	}
	o.lx, o.ly = lx, ly
	o.mu.Unlock()
	o.eachResource(o.sendGeometry)
}

// Position returns the output's current logical position.
func (o *Output) Position() (lx, ly int32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lx, o.ly
}

// Size returns the output's current logical size.
func (o *Output) Size() (w, h int32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.width, o.height
}

// SetTransform delegates to the backend and recomputes the transform
// matrix (no-op placeholder: no renderer here).
func (o *Output) SetTransform(t Transform) {
	if o.backend != nil {
		o.backend.Transform(t)
	}
	o.mu.Lock()
	o.transform = t
	o.mu.Unlock()
}

// Transform returns the output's current transform.
func (o *Output) Transform() Transform {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transform
}

// EffectiveResolution swaps width/height for the quarter-turn
// transforms (90, 270, and their flipped variants).
func (o *Output) EffectiveResolution() (width, height int32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if int(o.transform)%2 == 1 {
		return o.height, o.width
	}
	return o.width, o.height
}

// setCursorRaw is the shared hardware-then-software path used by both
// SetCursor and the surface-commit cursor refresh.
func (o *Output) setCursorRaw(buf []byte, stride int32, width, height uint32, hotspotX, hotspotY int32) bool {
	if o.backend != nil && o.backend.SetCursor(buf, stride, width, height, hotspotX, hotspotY, true) {
		o.mu.Lock()
		o.cursor.isSW = false
		o.mu.Unlock()
		return true
	}

	o.mu.Lock()
	o.cursor.isSW = true
	o.cursor.width, o.cursor.height = width, height
	o.cursor.texture = append([]byte(nil), buf...)
	o.mu.Unlock()
	return true
}

// SetCursor installs a raw ARGB8888 pixel buffer as the cursor,
// unlinking any surface-backed cursor that was previously bound.
func (o *Output) SetCursor(buf []byte, stride int32, width, height uint32, hotspotX, hotspotY int32) bool {
	o.unlinkCursorSurface()

	o.mu.Lock()
	o.cursor.hotspotX, o.cursor.hotspotY = hotspotX, hotspotY
	o.mu.Unlock()

	return o.setCursorRaw(buf, stride, width, height, hotspotX, hotspotY)
}

func (o *Output) unlinkCursorSurface() {
	o.mu.Lock()
	if o.cursor.surf != nil {
		o.cursor.commitListener.Remove()
		o.cursor.destroyListener.Remove()
		o.cursor.surf = nil
	}
	o.mu.Unlock()
}

// SetCursorSurface binds surf as the cursor surface: surf must carry
// the "wl_pointer-cursor" role, and its commits are routed to
// commitCursorSurface. Binding puts the cursor into software mode, in
// which commitCursorSurface skips every commit, so a surface-bound
// cursor's buffers are never uploaded or composited; only SetCursor
// supplies cursor pixels. Any other role is silently rejected (no-op),
// matching the original's strcmp check.
func (o *Output) SetCursorSurface(surf *surface.Surface, hotspotX, hotspotY int32) {
	if surf != nil && !surf.HasRole(cursorSurfaceRole) {
		return
	}

	o.mu.Lock()
	o.cursor.hotspotX, o.cursor.hotspotY = hotspotX, hotspotY
	same := surf != nil && surf == o.cursor.surf
	isSW := o.cursor.isSW
	o.mu.Unlock()

	if same {
		if !isSW && o.backend != nil {
			o.backend.SetCursor(nil, 0, 0, 0, hotspotX, hotspotY, false)
		}
		return
	}

	o.unlinkCursorSurface()

	o.mu.Lock()
	o.cursor.isSW = true
	o.mu.Unlock()
	if o.backend != nil {
		o.backend.SetCursor(nil, 0, 0, 0, hotspotX, hotspotY, true)
	}

	o.mu.Lock()
	o.cursor.surf = surf
	o.mu.Unlock()

	if surf == nil {
		o.setCursorRaw(nil, 0, 0, 0, hotspotX, hotspotY)
		return
	}

	commit := surf.OnCommit(func(buf *surface.Buffer) { o.commitCursorSurface(surf, buf) })
	destroy := surf.OnDestroy(func() { o.unlinkCursorSurface() })
	o.mu.Lock()
	o.cursor.commitListener = commit
	o.cursor.destroyListener = destroy
	o.mu.Unlock()

	o.commitCursorSurface(surf, surf.Current())
}

// commitCursorSurface re-extracts the surface's current ARGB8888
// buffer and refreshes the cursor image, but only while the cursor is
// not in software mode; in software mode, and for a nil buffer, the
// commit is silently skipped.
func (o *Output) commitCursorSurface(surf *surface.Surface, buf *surface.Buffer) {
	o.mu.Lock()
	isSW := o.cursor.isSW
	hx, hy := o.cursor.hotspotX, o.cursor.hotspotY
	o.mu.Unlock()
	if isSW {
		return
	}
	if buf == nil || buf.Data == nil {
		return
	}
	o.setCursorRaw(buf.Data, buf.Stride/4, uint32(buf.Width), uint32(buf.Height), hx-buf.Sx, hy-buf.Sy)
}

// MoveCursor updates the cursor's logical position. Software cursors
// only need the position tracked here; hardware cursors delegate to
// the backend.
func (o *Output) MoveCursor(x, y int32) bool {
	o.mu.Lock()
	o.cursor.x, o.cursor.y = x, y
	isSW := o.cursor.isSW
	o.mu.Unlock()

	if isSW {
		return true
	}
	if o.backend == nil {
		return false
	}
	return o.backend.MoveCursor(x, y)
}

// CompositedCursor reports the pixel buffer, position, and size the
// software cursor path would composite on the next SwapBuffers, or ok
// = false when a hardware cursor (or none) is active.
func (o *Output) CompositedCursor() (buf []byte, x, y int32, width, height uint32, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.cursor.isSW || o.cursor.texture == nil {
		return nil, 0, 0, 0, 0, false
	}
	return o.cursor.texture, o.cursor.x, o.cursor.y, o.cursor.width, o.cursor.height, true
}

// SwapBuffers emits the swap-buffers signal and asks the backend to
// flip. It draws nothing itself: the software cursor is not
// composited here, and CompositedCursor only reports what there is to
// draw.
func (o *Output) SwapBuffers() {
	o.onSwapBuffers.Emit(o)
	if o.backend != nil {
		o.backend.SwapBuffers()
	}
}

// Frame signals a completed frame to listeners.
func (o *Output) Frame() {
	o.onFrame.Emit(o)
}

// OnFrame, OnResolution, OnDestroy subscribe to the output's lifecycle
// signals.
func (o *Output) OnFrame(fn func()) *wire.Listener {
	return o.onFrame.Add(func(any) { fn() })
}

func (o *Output) OnResolution(fn func()) *wire.Listener {
	return o.onResolution.Add(func(any) { fn() })
}

func (o *Output) OnDestroy(fn func()) *wire.Listener {
	return o.onDestroy.Add(func(any) { fn() })
}

// Destroy emits the destroy signal and releases the backend.
func (o *Output) Destroy() {
	o.onDestroy.Emit(o)
	if o.backend != nil {
		o.backend.Destroy()
	}
}

// SetGamma forwards to the backend if it supports gamma control.
func (o *Output) SetGamma(r, g, b []uint16) {
	if o.backend != nil {
		o.backend.SetGamma(uint32(len(r)), r, g, b)
	}
}

// GammaSize reports the backend's gamma table size, or 0 if
// unsupported.
func (o *Output) GammaSize() uint32 {
	if o.backend == nil {
		return 0
	}
	return o.backend.GammaSize()
}
