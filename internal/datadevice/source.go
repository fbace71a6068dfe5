// Package datadevice implements the Data Source, Data Offer, Data
// Device, and drag-and-drop state machine (spec sections 4.3-4.6).
// Grounded throughout on
// original_source/types/wlr_data_device.c.
package datadevice

import (
	"fmt"
	"io"
	"sync"

	"github.com/wlcore/wlcore/internal/registry"
	"github.com/wlcore/wlcore/internal/seat"
	"github.com/wlcore/wlcore/internal/wire"
)

// Action is a drag-and-drop action bit. Sources and offers each
// advertise a mask of these; the chosen action is negotiated by
// intersecting the two (see (*Offer).chooseAction).
type Action uint32

const (
	ActionNone Action = 0
	ActionCopy Action = 1 << 0
	ActionMove Action = 1 << 1
	ActionAsk  Action = 1 << 2

	allActions = ActionCopy | ActionMove | ActionAsk
)

// wl_data_source.error codes.
const (
	sourceErrorInvalidActionMask uint32 = 0
	sourceErrorInvalidSource     uint32 = 1
)

// AcceptFunc, SendFunc and CancelFunc are the three hooks a Source
// exposes so a Data Offer or the Seat can drive it without knowing
// whether it's a client-owned source or a compositor-internal one
// (spec section 4.3).
type AcceptFunc func(source *Source, serial uint32, mime string)
type SendFunc func(source *Source, mime string, target io.Closer)
type CancelFunc func(source *Source)

// Source is a clipboard/drag payload offered by one client. It moves
// through fresh -> advertised (first offer attached to a
// destination) -> active-dnd (bound to a seat via start_drag) ->
// finished | cancelled | destroyed.
type Source struct {
	mu sync.Mutex

	resource *registry.Resource

	mimeTypes  []string
	actionsSet bool
	dndActions Action

	compositorAction Action
	currentDndAction Action
	accepted         bool

	boundSeat *seat.Handle
	offer     *Offer

	destroyed bool
	onDestroy wire.Signal

	Accept AcceptFunc
	Send   SendFunc
	CancelHook CancelFunc
}

// NewClientSource creates a source owned by a connected client,
// wired with the default hooks that forward straight to wire
// messages (target/send/cancelled), mirroring
// client_data_source_{accept,send,cancel}.
func NewClientSource(resource *registry.Resource) *Source {
	s := &Source{resource: resource}
	s.Accept = func(src *Source, serial uint32, mime string) {
		src.resource.Emit(0, "target", mime)
	}
	s.Send = func(src *Source, mime string, target io.Closer) {
		src.resource.Emit(0, "send", mime, target)
		if target != nil {
			target.Close()
		}
	}
	s.CancelHook = func(src *Source) {
		src.resource.Emit(0, "cancelled")
	}
	resource.SetData(s)
	resource.AddDestroyHook(func(*registry.Resource) { s.Destroy() })
	return s
}

// Resource returns the source's wire resource.
func (s *Source) Resource() *registry.Resource { return s.resource }

// Offer appends mime to the source's advertised mime list. Only
// meaningful before the source is advertised to a destination, but
// never rejected, matching data_source_offer.
func (s *Source) Offer(mime string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mimeTypes = append(s.mimeTypes, mime)
}

// MimeTypes returns the source's advertised mime list.
func (s *Source) MimeTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.mimeTypes))
	copy(out, s.mimeTypes)
	return out
}

// SetActions sets the source's supported drag actions. Fails with a
// protocol error if called twice, if mask contains bits outside
// {copy, move, ask}, or if the source has already entered a drag
// (bound to a seat via start_drag).
func (s *Source) SetActions(mask Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.actionsSet {
		return s.protocolErrorLocked("cannot set actions more than once")
	}
	if mask&^allActions != 0 {
		return s.protocolErrorLocked("invalid action mask %#x", mask)
	}
	if s.boundSeat != nil {
		return s.protocolErrorLocked("invalid action change after wl_data_device.start_drag")
	}

	s.dndActions = mask
	s.actionsSet = true
	return nil
}

func (s *Source) protocolErrorLocked(format string, args ...any) error {
	if s.resource != nil {
		return s.resource.PostError(sourceErrorInvalidActionMask, format, args...)
	}
	return fmt.Errorf(format, args...)
}

// Actions returns the source's advertised action mask.
func (s *Source) Actions() Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dndActions
}

// ActionsSet reports whether SetActions has succeeded at least once.
func (s *Source) ActionsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actionsSet
}

// SetCompositorAction pins the action the compositor prefers whenever
// it's available and the source is bound to a seat by a drag,
// overriding the destination's own preference (the
// offer->source->compositor_action field).
func (s *Source) SetCompositorAction(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compositorAction = a
}

// CurrentDndAction returns the action most recently negotiated for
// this source's current offer.
func (s *Source) CurrentDndAction() Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentDndAction
}

// Accepted reports whether the destination has accepted a mime type
// on the source's current offer.
func (s *Source) Accepted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// SetAccepted is called by Offer.Accept to record whether the
// destination accepted a non-null mime type.
func (s *Source) SetAccepted(v bool) {
	s.mu.Lock()
	s.accepted = v
	s.mu.Unlock()
}

// setSeat binds the source to the seat handle driving its drag.
// Per the original, this binding is never undone once set: set_actions
// stays locked out for the remainder of the source's life even after
// the drag that bound it ends (see DESIGN.md's Open Question log).
func (s *Source) setSeat(h *seat.Handle) {
	s.mu.Lock()
	s.boundSeat = h
	s.mu.Unlock()
}

// BoundSeat returns the handle of the seat that started this
// source's drag, or nil.
func (s *Source) BoundSeat() *seat.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundSeat
}

// CurrentOffer returns the source's live offer, or nil.
func (s *Source) CurrentOffer() *Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offer
}

// actionSnapshot returns the fields (*Offer).chooseAction needs under
// one lock acquisition.
func (s *Source) actionSnapshot() (dndActions Action, compositorAction Action, bound bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dndActions, s.compositorAction, s.boundSeat != nil
}

func (s *Source) setOffer(o *Offer) {
	s.mu.Lock()
	s.offer = o
	s.mu.Unlock()
}

// Cancel invokes the source's cancel hook. Implements
// seat.SelectionSource so a Source can be installed directly as the
// seat's clipboard owner.
func (s *Source) Cancel() {
	if s.CancelHook != nil {
		s.CancelHook(s)
	}
}

// OnDestroy subscribes to the source's destroy notification.
// Implements seat.SelectionSource.
func (s *Source) OnDestroy(fn func()) *wire.Listener {
	return s.onDestroy.Add(func(any) { fn() })
}

// Destroy notifies subscribers (bound offers, the seat's selection
// teardown, an in-flight drag) that the source is gone. Idempotent.
func (s *Source) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.mu.Unlock()
	s.onDestroy.Emit(s)
}
