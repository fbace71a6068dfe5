// Package seat implements the Seat and its grab stack (spec section
// 4.5): per-client handles, pointer/keyboard focus state, the
// selection (clipboard) source, and the LIFO grab stack that the
// default focus-follows-motion behavior and the drag-and-drop grabs
// (internal/datadevice) both install onto. Grounded on
// original_source/types/wlr_data_device.c.
package seat

import (
	"sync"

	"github.com/wlcore/wlcore/internal/registry"
	"github.com/wlcore/wlcore/internal/surface"
	"github.com/wlcore/wlcore/internal/wire"
)

// SelectionSource is the minimal shape the seat needs from a
// clipboard-owning object: something that can be told to give up
// ownership and that announces its own destruction. internal/
// datadevice.Source satisfies this without seat importing datadevice.
type SelectionSource interface {
	Cancel()
	OnDestroy(fn func()) *wire.Listener
}

// DataDeviceSink receives selection updates for one client's data
// device. Set on a Handle by whatever created that client's data
// device (internal/datadevice), so the seat can drive selection
// delivery without depending on that package.
type DataDeviceSink interface {
	SendSelection(source SelectionSource)
}

// PointerGrab receives pointer input while installed as the seat's
// active pointer grab. The default grab implements plain
// focus-follows-motion; internal/datadevice installs a DnD grab for
// the duration of a drag.
type PointerGrab interface {
	Enter(surf *surface.Surface, sx, sy float64)
	Motion(time uint32, sx, sy float64)
	Button(time, button, state uint32)
	Axis(time uint32, orientation uint32, value float64)
	Cancel()
}

// KeyboardGrab receives keyboard input while installed as the seat's
// active keyboard grab.
type KeyboardGrab interface {
	Enter(surf *surface.Surface)
	Key(time, key, state uint32)
	Modifiers(depressed, latched, locked, group uint32)
	Cancel()
}

// PointerState mirrors the fields start_drag's acceptance check reads
// directly (spec section 4.6): the held button count, the serial of
// the button press that started the current grab, and the currently
// focused surface.
type PointerState struct {
	FocusedSurface *surface.Surface
	ButtonCount    int
	GrabSerial     uint32
	GrabButton     uint32
}

// KeyboardState tracks keyboard focus, both the surface and the
// per-client handle that owns it (selection delivery targets the
// handle, not the surface).
type KeyboardState struct {
	FocusedHandle  *Handle
	FocusedSurface *surface.Surface
}

// Handle is a seat's per-client binding: the object start_drag and
// set_selection requests arrive on.
type Handle struct {
	mu         sync.Mutex
	client     registry.ClientID
	seat       *Seat
	dataDevice DataDeviceSink

	onUnbound wire.Signal
}

// Client returns the client this handle is bound to.
func (h *Handle) Client() registry.ClientID { return h.client }

// SetDataDevice registers the per-client data device sink, so the
// seat can deliver selection updates to it.
func (h *Handle) SetDataDevice(sink DataDeviceSink) {
	h.mu.Lock()
	h.dataDevice = sink
	h.mu.Unlock()
}

// DataDevice returns the handle's registered data device sink, or nil.
func (h *Handle) DataDevice() DataDeviceSink {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dataDevice
}

// SendSelection forwards the seat's current selection to this
// handle's data device, if one is bound.
func (h *Handle) SendSelection() {
	sink := h.DataDevice()
	if sink == nil {
		return
	}
	h.seat.mu.Lock()
	source := h.seat.selectionSource
	h.seat.mu.Unlock()
	sink.SendSelection(source)
}

// OnUnbound subscribes to this handle's client-disconnect
// notification.
func (h *Handle) OnUnbound(fn func()) *wire.Listener {
	return h.onUnbound.Add(func(any) { fn() })
}

type defaultPointerGrab struct{ seat *Seat }

func (g *defaultPointerGrab) Enter(surf *surface.Surface, sx, sy float64) {
	g.seat.mu.Lock()
	g.seat.pointer.FocusedSurface = surf
	g.seat.mu.Unlock()
}
func (g *defaultPointerGrab) Motion(time uint32, sx, sy float64) {}
func (g *defaultPointerGrab) Button(time, button, state uint32)  {}
func (g *defaultPointerGrab) Axis(time uint32, orientation uint32, value float64) {}
func (g *defaultPointerGrab) Cancel()                            {}

type defaultKeyboardGrab struct{ seat *Seat }

func (g *defaultKeyboardGrab) Enter(surf *surface.Surface) {
	g.seat.mu.Lock()
	g.seat.keyboard.FocusedSurface = surf
	g.seat.mu.Unlock()
}
func (g *defaultKeyboardGrab) Key(time, key, state uint32)                     {}
func (g *defaultKeyboardGrab) Modifiers(depressed, latched, locked, group uint32) {}
func (g *defaultKeyboardGrab) Cancel()                                         {}

// Seat is one input seat: a pointer and keyboard grab stack, focus
// state, the clipboard selection, and the set of per-client handles.
type Seat struct {
	mu sync.Mutex

	handles map[registry.ClientID]*Handle

	pointer      PointerState
	pointerStack []PointerGrab

	keyboard      KeyboardState
	keyboardStack []KeyboardGrab

	selectionSource  SelectionSource
	selectionSerial  uint32
	selectionDestroy *wire.Listener

	nextSerial uint32

	onSelection wire.Signal
}

// New creates a seat with its default pointer and keyboard grabs
// installed.
func New() *Seat {
	s := &Seat{handles: make(map[registry.ClientID]*Handle)}
	s.pointerStack = []PointerGrab{&defaultPointerGrab{seat: s}}
	s.keyboardStack = []KeyboardGrab{&defaultKeyboardGrab{seat: s}}
	return s
}

// NextSerial returns a monotonically increasing serial, the
// wl_display_next_serial equivalent used to stamp enter/selection
// events.
func (s *Seat) NextSerial() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSerial++
	return s.nextSerial
}

// HandleFor returns the per-client handle for client, creating it if
// this is the first time the client has been seen.
func (s *Seat) HandleFor(client registry.ClientID) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.handles[client]; ok {
		return h
	}
	h := &Handle{client: client, seat: s}
	s.handles[client] = h
	return h
}

// LookupHandle returns the existing handle for client, without
// creating one, the wlr_seat_handle_for_client equivalent used by
// drag focus changes to find the destination client's handle.
func (s *Seat) LookupHandle(client registry.ClientID) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[client]
	return h, ok
}

// UnbindClient tears down client's handle and fires client_unbound so
// subscribers (an in-flight drag's focus handle) can clear their
// back-reference.
func (s *Seat) UnbindClient(client registry.ClientID) {
	s.mu.Lock()
	h, ok := s.handles[client]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.handles, client)
	s.mu.Unlock()

	h.onUnbound.Emit(h)
}

// PointerState returns a snapshot of the seat's pointer state.
func (s *Seat) PointerState() PointerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer
}

// PointerClearFocus drops pointer focus without notifying the current
// grab, used by start_drag so the default grab cannot later deliver
// the button release that initiated the drag.
func (s *Seat) PointerClearFocus() {
	s.mu.Lock()
	s.pointer.FocusedSurface = nil
	s.mu.Unlock()
}

// PointerEnter forwards to the active pointer grab's Enter hook.
func (s *Seat) PointerEnter(surf *surface.Surface, sx, sy float64) {
	s.topPointerGrab().Enter(surf, sx, sy)
}

// PointerMotion forwards to the active pointer grab's Motion hook.
func (s *Seat) PointerMotion(time uint32, sx, sy float64) {
	s.topPointerGrab().Motion(time, sx, sy)
}

// PointerButton updates button accounting (grab_serial/grab_button on
// press, the button count on every transition) and forwards to the
// active grab. state is 1 for pressed, 0 for released.
func (s *Seat) PointerButton(time, button, state, serial uint32) {
	s.mu.Lock()
	if state != 0 {
		s.pointer.ButtonCount++
		s.pointer.GrabSerial = serial
		s.pointer.GrabButton = button
	} else if s.pointer.ButtonCount > 0 {
		s.pointer.ButtonCount--
	}
	s.mu.Unlock()

	s.topPointerGrab().Button(time, button, state)
}

// PointerAxis forwards to the active pointer grab's Axis hook.
func (s *Seat) PointerAxis(time uint32, orientation uint32, value float64) {
	s.topPointerGrab().Axis(time, orientation, value)
}

func (s *Seat) topPointerGrab() PointerGrab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointerStack[len(s.pointerStack)-1]
}

func (s *Seat) topKeyboardGrab() KeyboardGrab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyboardStack[len(s.keyboardStack)-1]
}

// PushPointerGrab installs g as the active pointer grab, cancelling
// whatever grab was previously on top.
func (s *Seat) PushPointerGrab(g PointerGrab) {
	s.mu.Lock()
	prev := s.pointerStack[len(s.pointerStack)-1]
	s.pointerStack = append(s.pointerStack, g)
	s.mu.Unlock()
	prev.Cancel()
}

// EndPointerGrab pops the active pointer grab, restoring whichever one
// was installed before it. A no-op if only the default grab remains.
func (s *Seat) EndPointerGrab() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pointerStack) > 1 {
		s.pointerStack = s.pointerStack[:len(s.pointerStack)-1]
	}
}

// PushKeyboardGrab installs g as the active keyboard grab, cancelling
// whatever grab was previously on top.
func (s *Seat) PushKeyboardGrab(g KeyboardGrab) {
	s.mu.Lock()
	prev := s.keyboardStack[len(s.keyboardStack)-1]
	s.keyboardStack = append(s.keyboardStack, g)
	s.mu.Unlock()
	prev.Cancel()
}

// EndKeyboardGrab pops the active keyboard grab.
func (s *Seat) EndKeyboardGrab() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.keyboardStack) > 1 {
		s.keyboardStack = s.keyboardStack[:len(s.keyboardStack)-1]
	}
}

// PointerGrabbed reports whether a non-default pointer grab (e.g. an
// in-flight drag) is currently installed.
func (s *Seat) PointerGrabbed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pointerStack) > 1
}

// KeyboardGrabbed reports whether a non-default keyboard grab is
// currently installed.
func (s *Seat) KeyboardGrabbed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keyboardStack) > 1
}

// ForceCancelPointerGrab cancels every non-default pointer grab on the
// stack, restoring focus-follows-motion. Intended for an operator
// breaking a client out of a stuck drag or grab; ordinary grab
// release goes through EndPointerGrab as the protocol dictates.
func (s *Seat) ForceCancelPointerGrab() {
	for s.PointerGrabbed() {
		s.topPointerGrab().Cancel()
	}
}

// ForceCancelKeyboardGrab cancels every non-default keyboard grab on
// the stack.
func (s *Seat) ForceCancelKeyboardGrab() {
	for s.KeyboardGrabbed() {
		s.topKeyboardGrab().Cancel()
	}
}

// Selection returns the seat's current selection source, or nil.
func (s *Seat) Selection() SelectionSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectionSource
}

// SetSelection installs source as the clipboard owner if serial is
// strictly newer than the existing selection's, using wrap-safe serial
// comparison. Rejects (no-op) stale and equal serials. Replacing a selection
// cancels the outgoing source and re-advertises to the focused
// client's data device.
func (s *Seat) SetSelection(source SelectionSource, serial uint32) {
	s.mu.Lock()
	if s.selectionSource != nil && wrapLess(serial, s.selectionSerial) {
		s.mu.Unlock()
		return
	}

	if s.selectionSource != nil {
		prev := s.selectionSource
		s.selectionDestroy.Remove()
		s.selectionSource = nil
		s.mu.Unlock()
		prev.Cancel()
		s.mu.Lock()
	}

	s.selectionSource = source
	s.selectionSerial = serial
	focused := s.keyboard.FocusedHandle
	s.mu.Unlock()

	if focused != nil {
		focused.SendSelection()
	}
	s.onSelection.Emit(s)

	if source != nil {
		listener := source.OnDestroy(func() { s.handleSelectionSourceDestroyed(source) })
		s.mu.Lock()
		s.selectionDestroy = listener
		s.mu.Unlock()
	}
}

func (s *Seat) handleSelectionSourceDestroyed(source SelectionSource) {
	s.mu.Lock()
	if s.selectionSource != source {
		s.mu.Unlock()
		return
	}
	s.selectionSource = nil
	focused := s.keyboard.FocusedHandle
	s.mu.Unlock()

	if focused != nil {
		focused.SendSelection()
	}
	s.onSelection.Emit(s)
}

// wrapLess reports whether incoming is "older than or equal to" base
// under serial wraparound, i.e. base - incoming < UINT32_MAX/2 (using
// C's truncating integer division, 2147483647, not 1<<31).
func wrapLess(incoming, base uint32) bool {
	return base-incoming < 1<<31-1
}

// SetKeyboardFocus updates keyboard focus to handle/surf. The data
// device selection is re-advertised to the new focus's handle.
func (s *Seat) SetKeyboardFocus(handle *Handle, surf *surface.Surface) {
	s.mu.Lock()
	s.keyboard.FocusedHandle = handle
	s.keyboard.FocusedSurface = surf
	s.mu.Unlock()

	if handle != nil {
		handle.SendSelection()
	}
}

// OnSelection subscribes to selection-change notifications.
func (s *Seat) OnSelection(fn func()) *wire.Listener {
	return s.onSelection.Add(func(any) { fn() })
}
