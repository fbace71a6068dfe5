package datadevice

import (
	"sync"

	"github.com/wlcore/wlcore/internal/registry"
	"github.com/wlcore/wlcore/internal/seat"
	"github.com/wlcore/wlcore/internal/surface"
	"github.com/wlcore/wlcore/internal/wire"
)

// iconRole is the role a drag icon surface must take on; a surface
// already holding a conflicting role makes StartDrag fail.
const iconRole = "wl_data_device-icon"

// Drag is one in-flight drag-and-drop operation: the dragged source
// (absent for an icon-only internal drag), the optional icon
// surface, and the focus tracking that drives enter/leave/motion on
// whichever client the pointer is currently over.
type Drag struct {
	mu sync.Mutex

	handle *seat.Handle
	seatRef *seat.Seat

	source *Source
	icon   *surface.Surface

	focus       *surface.Surface
	focusHandle *seat.Handle

	iconDestroy   *wire.Listener
	sourceDestroy *wire.Listener
	handleUnbound *wire.Listener

	ended bool
}

// StartDrag validates and begins a drag, the data_device.start_drag
// request handler. Acceptance requires exactly one pointer button
// held, the grab serial matching the one that pressed it, and the
// pointer currently focused on origin (spec section 4.6). Any other
// state is a silent no-op, matching the original's
// "if (!is_pointer_grab) return;".
func (m *Manager) StartDrag(handle *seat.Handle, source *Source, origin *surface.Surface, icon *surface.Surface, serial uint32) error {
	st := m.seat.PointerState()
	if st.ButtonCount != 1 || st.GrabSerial != serial || st.FocusedSurface == nil || st.FocusedSurface != origin {
		return nil
	}

	if icon != nil {
		if err := icon.SetRole(iconRole); err != nil {
			return err
		}
	}

	drag := &Drag{handle: handle, seatRef: m.seat, source: source, icon: icon}
	if icon != nil {
		drag.iconDestroy = icon.OnDestroy(func() {
			drag.mu.Lock()
			drag.icon = nil
			drag.mu.Unlock()
		})
	}
	if source != nil {
		drag.sourceDestroy = source.OnDestroy(func() { drag.end() })
	}

	m.seat.PointerClearFocus()
	m.seat.PushKeyboardGrab(&dragKeyboardGrab{drag: drag})
	m.seat.PushPointerGrab(&dragPointerGrab{drag: drag})

	if source != nil {
		source.setSeat(handle)
	}
	return nil
}

// setFocus moves drag focus to surf, the wlr_drag_set_focus
// equivalent (spec section 4.6).
func (d *Drag) setFocus(surf *surface.Surface, sx, sy float64) {
	d.mu.Lock()
	if d.focus == surf {
		d.mu.Unlock()
		return
	}

	if d.focusHandle != nil {
		if dev, ok := d.focusHandle.DataDevice().(*Device); ok && dev != nil {
			d.handleUnbound.Remove()
			dev.Resource().Emit(0, "leave")
		}
		d.focusHandle = nil
		d.focus = nil
	}
	source := d.source
	originHandle := d.handle
	d.mu.Unlock()

	if surf == nil || surf.Resource() == nil {
		return
	}

	// Internal drags (no source) may only hand focus to the
	// originating client.
	if source == nil && surf.Resource().Client() != originHandle.Client() {
		return
	}

	if source != nil {
		if offer := source.CurrentOffer(); offer != nil {
			offer.mu.Lock()
			offer.source = nil
			offer.mu.Unlock()
			offer.sourceDestroy.Remove()
			source.setOffer(nil)
		}
	}

	focusHandle, ok := d.seatRef.LookupHandle(surf.Resource().Client())
	if !ok {
		return
	}
	dev, ok := focusHandle.DataDevice().(*Device)
	if !ok || dev == nil {
		return
	}

	var offerResource *registry.Resource
	if source != nil {
		source.SetAccepted(false)
		offer := SendOffer(source, dev.Resource())
		offer.updateAction()
		if dev.Resource().SinceVersion(wire.DataOfferSourceActionsSince) {
			offer.Resource().Emit(wire.DataOfferSourceActionsSince, "source_actions", source.Actions())
		}
		offerResource = offer.Resource()
	}

	serialNum := d.seatRef.NextSerial()
	dev.Resource().Emit(0, "enter", serialNum, surf.Resource(), wire.FromFloat64(sx), wire.FromFloat64(sy), offerResource)

	unbound := focusHandle.OnUnbound(func() {
		d.mu.Lock()
		if d.focusHandle == focusHandle {
			d.focusHandle = nil
		}
		d.mu.Unlock()
	})

	d.mu.Lock()
	d.focus = surf
	d.focusHandle = focusHandle
	d.handleUnbound = unbound
	d.mu.Unlock()
}

// handleButton resolves a pointer button transition during a drag: a
// matching-button release either performs the drop (when the
// destination has accepted and negotiated a non-none action) or
// cancels the source; button_count returning to zero always ends the
// drag regardless of which button released it.
func (d *Drag) handleButton(time, button, state uint32) {
	st := d.seatRef.PointerState()

	d.mu.Lock()
	source := d.source
	focusHandle := d.focusHandle
	d.mu.Unlock()

	if source != nil && st.GrabButton == button && state == 0 {
		dev, _ := focusHandleDevice(focusHandle)
		action := source.CurrentDndAction()
		if dev != nil && action != ActionNone && source.Accepted() {
			dev.Resource().Emit(0, "drop")
			source.Resource().Emit(wire.DataSourceDndDropPerformedSince, "dnd_drop_performed")
			if offer := source.CurrentOffer(); offer != nil {
				offer.mu.Lock()
				offer.inAsk = action == ActionAsk
				offer.mu.Unlock()
			}
		} else if source.Resource().SinceVersion(wire.DataSourceDndFinishedSince) {
			source.Resource().Emit(wire.DataSourceDndFinishedSince, "cancelled")
		}
	}

	if st.ButtonCount == 0 && state == 0 {
		d.end()
	}
}

func focusHandleDevice(h *seat.Handle) (*Device, bool) {
	if h == nil {
		return nil, false
	}
	dev, ok := h.DataDevice().(*Device)
	return dev, ok && dev != nil
}

// end tears the drag down: unsubscribes icon/source listeners, clears
// focus (firing leave if applicable), and pops both grabs. Idempotent.
func (d *Drag) end() {
	d.mu.Lock()
	if d.ended {
		d.mu.Unlock()
		return
	}
	d.ended = true
	icon, source := d.icon, d.source
	iconDestroy, sourceDestroy := d.iconDestroy, d.sourceDestroy
	d.mu.Unlock()

	if icon != nil {
		iconDestroy.Remove()
	}
	if source != nil {
		sourceDestroy.Remove()
	}

	d.setFocus(nil, 0, 0)
	d.seatRef.EndPointerGrab()
	d.seatRef.EndKeyboardGrab()
}

type dragPointerGrab struct{ drag *Drag }

func (g *dragPointerGrab) Enter(surf *surface.Surface, sx, sy float64) {
	g.drag.setFocus(surf, sx, sy)
}

func (g *dragPointerGrab) Motion(time uint32, sx, sy float64) {
	g.drag.mu.Lock()
	focusHandle := g.drag.focusHandle
	g.drag.mu.Unlock()
	dev, ok := focusHandleDevice(focusHandle)
	if !ok {
		return
	}
	dev.Resource().Emit(0, "motion", time, wire.FromFloat64(sx), wire.FromFloat64(sy))
}

func (g *dragPointerGrab) Button(time, button, state uint32) {
	g.drag.handleButton(time, button, state)
}

func (g *dragPointerGrab) Axis(time uint32, orientation uint32, value float64) {}

func (g *dragPointerGrab) Cancel() { g.drag.end() }

// dragKeyboardGrab swallows all keyboard input for the duration of a
// drag; nothing has keyboard focus while dragging.
type dragKeyboardGrab struct{ drag *Drag }

func (g *dragKeyboardGrab) Enter(surf *surface.Surface)          {}
func (g *dragKeyboardGrab) Key(time, key, state uint32)          {}
func (g *dragKeyboardGrab) Modifiers(depressed, latched, locked, group uint32) {}
func (g *dragKeyboardGrab) Cancel()                              { g.drag.end() }
